// Package protocol defines the interfaces between the automation core and
// its external collaborators: reaction handlers, connectors, credential
// stores and variable resolvers.
package protocol

import (
	"context"
	"log/slog"

	"github.com/dukex/areaflow/pkg/models"
)

// ReactionHandler executes one reaction step. Handlers receive the already
// variable-substituted params and may read and mutate the execution context
// in place; keys they add must be namespaced (e.g. "weather.temperature")
// and existing keys must never be deleted. Context mutation is how later
// steps see earlier steps' output.
type ReactionHandler interface {
	Execute(
		ctx context.Context,
		automation *models.Automation,
		params map[string]any,
		execCtx *models.ExecutionContext,
		logger *slog.Logger,
	) error
}

// ReactionHandlerFunc adapts a function to the ReactionHandler interface.
type ReactionHandlerFunc func(
	ctx context.Context,
	automation *models.Automation,
	params map[string]any,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) error

func (f ReactionHandlerFunc) Execute(
	ctx context.Context,
	automation *models.Automation,
	params map[string]any,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) error {
	return f(ctx, automation, params, execCtx, logger)
}
