// Package credentials adapts the credential repository to the scheduler's
// CredentialStore interface.
package credentials

import (
	"context"
	"errors"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/persistence"
	"github.com/dukex/areaflow/pkg/protocol"
)

// RefreshFunc exchanges an expired credential for a fresh one, typically by
// calling the service's OAuth token endpoint.
type RefreshFunc func(ctx context.Context, credential *models.Credential) (*models.Credential, error)

// Store reads credentials from the repository and refreshes them through the
// configured RefreshFunc. Without one, expired credentials are an
// unrecoverable auth failure and the scheduler skips the automation.
type Store struct {
	repo    persistence.CredentialRepository
	refresh RefreshFunc
}

func NewStore(repo persistence.CredentialRepository, refresh RefreshFunc) *Store {
	return &Store{repo: repo, refresh: refresh}
}

// Get returns the stored credential, or nil when the owner never connected
// the service.
func (s *Store) Get(ctx context.Context, userID, service string) (*models.Credential, error) {
	credential, err := s.repo.Get(ctx, userID, service)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return credential, nil
}

// Refresh exchanges the credential and persists the fresh token.
func (s *Store) Refresh(ctx context.Context, credential *models.Credential) (*models.Credential, error) {
	if s.refresh == nil {
		return nil, &protocol.ConnectorAuthError{
			Service: credential.Service,
			Err:     errors.New("credential expired and no refresher configured"),
		}
	}

	fresh, err := s.refresh(ctx, credential)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, fresh); err != nil {
		return nil, err
	}

	return fresh, nil
}
