package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/protocol"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func noopHandler() protocol.ReactionHandler {
	return protocol.ReactionHandlerFunc(func(
		_ context.Context,
		_ *models.Automation,
		_ map[string]any,
		_ *models.ExecutionContext,
		_ *slog.Logger,
	) error {
		return nil
	})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterReaction("discord", "send_message", noopHandler())

	handler, ok := reg.Get("discord", "send_message")
	require.True(t, ok)
	assert.NotNil(t, handler)

	// Lookup is case-insensitive on both halves.
	_, ok = reg.Get("Discord", "SEND_MESSAGE")
	assert.True(t, ok)

	_, ok = reg.Get("discord", "delete_message")
	assert.False(t, ok)
}

func TestRegistry_ValidateParams(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterReaction("discord", "send_message", noopHandler())

	err := reg.RegisterSchema("discord", "send_message", `{
		"type": "object",
		"properties": {
			"channel_id": {"type": "string"},
			"message": {"type": "string"}
		},
		"required": ["channel_id", "message"]
	}`)
	require.NoError(t, err)

	err = reg.ValidateParams("discord", "send_message", map[string]any{
		"channel_id": "123",
		"message":    "hi",
	})
	assert.NoError(t, err)

	err = reg.ValidateParams("discord", "send_message", map[string]any{
		"channel_id": "123",
	})
	assert.Error(t, err)

	// Reactions without a schema accept anything.
	reg.RegisterReaction("system", "log", noopHandler())
	assert.NoError(t, reg.ValidateParams("system", "log", map[string]any{"whatever": 1}))
}

func TestRegistry_RegisterSchema_Invalid(t *testing.T) {
	reg := newTestRegistry()

	err := reg.RegisterSchema("discord", "send_message", `{"type": 42}`)
	assert.Error(t, err)
}

func TestRegistry_Services(t *testing.T) {
	reg := newTestRegistry()
	reg.RegisterReaction("discord", "send_message", noopHandler())
	reg.RegisterReaction("discord", "add_reaction", noopHandler())
	reg.RegisterReaction("gmail", "send_email", noopHandler())

	services := reg.Services()
	assert.ElementsMatch(t, []string{"discord", "gmail"}, services)
}
