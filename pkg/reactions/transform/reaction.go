// Package transform provides the data.transform reaction, which copies a
// value out of the execution context under a new key so later steps can read
// it under a stable name.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/areaflow/pkg/conditions"
	"github.com/dukex/areaflow/pkg/models"
)

// ErrMissingInput is returned when the params carry no input path.
var ErrMissingInput = errors.New("missing or invalid 'input' in params")

const defaultOutputKey = "transform.result"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Execute resolves the dotted input path against the live execution context,
// including keys added by earlier steps, and stores the value under the
// configured output key. With "stringify" set the value is flattened to its
// string form first.
func (h *Handler) Execute(
	ctx context.Context,
	_ *models.Automation,
	params map[string]any,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) error {
	input, ok := params["input"].(string)
	if !ok || input == "" {
		return ErrMissingInput
	}

	outputKey, _ := params["output"].(string)
	if outputKey == "" {
		outputKey = defaultOutputKey
	}

	value, err := conditions.ResolvePath(execCtx.Data, input)
	if err != nil {
		return fmt.Errorf("failed to resolve input %q: %w", input, err)
	}

	if stringify, _ := params["stringify"].(bool); stringify {
		value = fmt.Sprintf("%v", value)
	}

	execCtx.Set(outputKey, value)

	logger.InfoContext(ctx, "Transform reaction completed", "input", input, "output", outputKey)

	return nil
}
