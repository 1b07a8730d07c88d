package credentials

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/persistence/file"
	"github.com/dukex/areaflow/pkg/protocol"
)

func TestStore_Get(t *testing.T) {
	repo := file.NewCredentialRepository(t.TempDir())
	store := NewStore(repo, nil)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Credential{
		UserID:      "user-1",
		Service:     "github",
		AccessToken: "tok",
	}))

	credential, err := store.Get(ctx, "user-1", "github")
	require.NoError(t, err)
	require.NotNil(t, credential)
	assert.Equal(t, "tok", credential.AccessToken)

	missing, err := store.Get(ctx, "user-1", "gitlab")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_Refresh_NoRefresher(t *testing.T) {
	store := NewStore(file.NewCredentialRepository(t.TempDir()), nil)

	_, err := store.Refresh(context.Background(), &models.Credential{Service: "github"})

	var authErr *protocol.ConnectorAuthError

	assert.ErrorAs(t, err, &authErr)
}

func TestStore_Refresh_PersistsFreshToken(t *testing.T) {
	repo := file.NewCredentialRepository(t.TempDir())
	ctx := context.Background()

	expired := time.Now().UTC().Add(-time.Hour)
	stale := &models.Credential{
		UserID:      "user-1",
		Service:     "github",
		AccessToken: "stale",
		ExpiresAt:   &expired,
	}
	require.NoError(t, repo.Save(ctx, stale))

	store := NewStore(repo, func(_ context.Context, credential *models.Credential) (*models.Credential, error) {
		fresh := *credential
		fresh.AccessToken = "fresh"
		fresh.ExpiresAt = nil

		return &fresh, nil
	})

	fresh, err := store.Refresh(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, "fresh", fresh.AccessToken)

	stored, err := repo.Get(ctx, "user-1", "github")
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
}

func TestStore_Refresh_ErrorIsNotPersisted(t *testing.T) {
	repo := file.NewCredentialRepository(t.TempDir())

	store := NewStore(repo, func(_ context.Context, _ *models.Credential) (*models.Credential, error) {
		return nil, errors.New("token endpoint unreachable")
	})

	_, err := store.Refresh(context.Background(), &models.Credential{UserID: "user-1", Service: "github"})
	assert.Error(t, err)
}
