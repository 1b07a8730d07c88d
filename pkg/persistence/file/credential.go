package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/persistence"
)

// CredentialRepository stores credentials as JSON files under
// root/credentials/<user_id>-<service>.json. Tokens arrive already encrypted
// by the OAuth layer; this store never inspects them.
type CredentialRepository struct {
	root string
}

func NewCredentialRepository(root string) *CredentialRepository {
	return &CredentialRepository{root: root}
}

func (cr *CredentialRepository) dir() string {
	return path.Join(cr.root, "credentials")
}

func (cr *CredentialRepository) filePath(userID, service string) string {
	return path.Join(cr.dir(), userID+"-"+service+".json")
}

func (cr *CredentialRepository) Get(_ context.Context, userID, service string) (*models.Credential, error) {
	data, err := os.ReadFile(cr.filePath(userID, service))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read credential: %w", err)
	}

	var credential models.Credential
	if err := json.Unmarshal(data, &credential); err != nil {
		return nil, fmt.Errorf("failed to decode credential: %w", err)
	}

	return &credential, nil
}

func (cr *CredentialRepository) Save(_ context.Context, credential *models.Credential) error {
	if err := os.MkdirAll(cr.dir(), 0o700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(credential, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential: %w", err)
	}

	filePath := cr.filePath(credential.UserID, credential.Service)
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credential: %w", err)
	}

	return nil
}

func (cr *CredentialRepository) Delete(_ context.Context, userID, service string) error {
	err := os.Remove(cr.filePath(userID, service))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrNotFound
		}

		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}
