package transform

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/areaflow/pkg/models"
)

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler()
	execCtx := models.NewExecutionContext("auto-1", map[string]any{
		"issue": map[string]any{"title": "bug: crash on start"},
	})

	err := handler.Execute(context.Background(), nil, map[string]any{
		"input":  "trigger.issue.title",
		"output": "notify.subject",
	}, execCtx, slog.Default())
	require.NoError(t, err)

	value, ok := execCtx.Get("notify.subject")
	require.True(t, ok)
	assert.Equal(t, "bug: crash on start", value)
}

func TestHandler_Execute_FlatKeyFromEarlierStep(t *testing.T) {
	handler := NewHandler()
	execCtx := models.NewExecutionContext("auto-1", nil)
	execCtx.Set("weather.temperature", 31)

	err := handler.Execute(context.Background(), nil, map[string]any{
		"input":     "weather.temperature",
		"stringify": true,
	}, execCtx, slog.Default())
	require.NoError(t, err)

	value, _ := execCtx.Get("transform.result")
	assert.Equal(t, "31", value)
}

func TestHandler_Execute_MissingInput(t *testing.T) {
	handler := NewHandler()
	execCtx := models.NewExecutionContext("auto-1", nil)

	err := handler.Execute(context.Background(), nil, map[string]any{}, execCtx, slog.Default())
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestHandler_Execute_UnresolvablePath(t *testing.T) {
	handler := NewHandler()
	execCtx := models.NewExecutionContext("auto-1", nil)

	err := handler.Execute(context.Background(), nil, map[string]any{
		"input": "nothing.here",
	}, execCtx, slog.Default())
	assert.Error(t, err)
}
