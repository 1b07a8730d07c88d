package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukex/areaflow/pkg/models"
)

func TestEvaluateSimple(t *testing.T) {
	context := map[string]any{
		"trigger": map[string]any{
			"amount":  150,
			"subject": "Invoice overdue",
		},
		"weather.temperature": 21.5,
	}

	tests := []struct {
		name     string
		field    string
		operator string
		value    any
		expected bool
	}{
		{"gt true", "trigger.amount", "gt", 100, true},
		{"gt false", "trigger.amount", "gt", 200, false},
		{"lt", "trigger.amount", "lt", 200, true},
		{"gte boundary", "trigger.amount", "gte", 150, true},
		{"lte boundary", "trigger.amount", "lte", 150, true},
		{"eq", "trigger.amount", "eq", 150, true},
		{"eq cross-type", "trigger.amount", "eq", 150.0, true},
		{"ne", "trigger.amount", "ne", 151, true},
		{"contains", "trigger.subject", "contains", "overdue", true},
		{"contains coerced", "trigger.amount", "contains", 15, true},
		{"startswith", "trigger.subject", "startswith", "Invoice", true},
		{"endswith", "trigger.subject", "endswith", "due", true},
		{"flat namespaced key", "weather.temperature", "gt", 20, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EvaluateSimple(tt.field, tt.operator, tt.value, context)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluateSimple_MissingField(t *testing.T) {
	context := map[string]any{
		"trigger": map[string]any{},
	}

	_, err := EvaluateSimple("trigger.amount", "gt", 100, context)
	require.Error(t, err)

	var evalErr *ConditionEvaluationError

	assert.ErrorAs(t, err, &evalErr)
}

func TestEvaluateSimple_UnsupportedOperator(t *testing.T) {
	context := map[string]any{"x": 1}

	_, err := EvaluateSimple("x", "regex", ".*", context)
	require.Error(t, err)
}

func TestEvaluate_ConfigDispatch(t *testing.T) {
	execCtx := models.NewExecutionContext("auto-1", map[string]any{"amount": 150})

	result, err := Evaluate(map[string]any{
		"field":    "trigger.amount",
		"operator": "gt",
		"value":    100,
	}, execCtx)
	require.NoError(t, err)
	assert.True(t, result)

	result, err = Evaluate(map[string]any{
		"expression": "trigger.amount > 100",
	}, execCtx)
	require.NoError(t, err)
	assert.True(t, result)

	_, err = Evaluate(map[string]any{}, execCtx)
	require.Error(t, err)

	_, err = Evaluate(map[string]any{"expression": 42}, execCtx)
	require.Error(t, err)
}
