// Package log provides the system.log reaction, which writes a message to
// the process log. Useful for debugging automations end to end.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/areaflow/pkg/models"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Execute logs the substituted message and records it in the execution
// context under "log.message".
func (h *Handler) Execute(
	ctx context.Context,
	_ *models.Automation,
	params map[string]any,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) error {
	message := fmt.Sprintf("%v", params["message"])

	level, _ := params["level"].(string)

	logger = logger.With("reaction", "system.log", "execution_id", execCtx.ID)

	switch level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	execCtx.Set("log.message", message)

	return nil
}
