package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/persistence"
)

// CredentialRepository handles credential database operations.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new credential repository.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Get(ctx context.Context, userID, service string) (*models.Credential, error) {
	query := `
		SELECT user_id, service, access_token, refresh_token, expires_at
		FROM credentials
		WHERE user_id = $1 AND service = $2
	`

	var (
		credential   models.Credential
		refreshToken sql.NullString
	)

	err := r.db.QueryRowContext(ctx, query, userID, service).Scan(
		&credential.UserID,
		&credential.Service,
		&credential.AccessToken,
		&refreshToken,
		&credential.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	credential.RefreshToken = refreshToken.String

	return &credential, nil
}

func (r *CredentialRepository) Save(ctx context.Context, credential *models.Credential) error {
	query := `
		INSERT INTO credentials (user_id, service, access_token, refresh_token, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, service) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.ExecContext(ctx, query,
		credential.UserID,
		credential.Service,
		credential.AccessToken,
		nullableString(credential.RefreshToken),
		credential.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, userID, service string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE user_id = $1 AND service = $2", userID, service)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}
