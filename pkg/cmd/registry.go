package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/areaflow/pkg/reactions/httprequest"
	logreaction "github.com/dukex/areaflow/pkg/reactions/log"
	"github.com/dukex/areaflow/pkg/reactions/transform"
	"github.com/dukex/areaflow/pkg/registry"
)

// NewRegistry builds the reaction registry with the native reactions and any
// plugins found under pluginsPath.
func NewRegistry(ctx context.Context, logger *slog.Logger, pluginsPath string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterReaction("system", "log", logreaction.NewHandler())
	reg.RegisterReaction("http", "request", httprequest.NewHandler())
	reg.RegisterReaction("data", "transform", transform.NewHandler())

	if err := reg.RegisterSchema("http", "request", httprequest.Schema); err != nil {
		logger.ErrorContext(ctx, "Failed to register http.request schema", "error", err)
	}

	if pluginsPath != "" {
		if err := reg.LoadReactionPlugins(pluginsPath); err != nil {
			logger.ErrorContext(ctx, "Failed to load reaction plugins", "error", err)
		}
	}

	return reg
}
