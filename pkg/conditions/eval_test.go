package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() map[string]any {
	return map[string]any{
		"trigger": map[string]any{
			"amount":  150,
			"subject": "Invoice overdue",
			"user": map[string]any{
				"name": "ada",
			},
		},
		"weather": map[string]any{
			"temperature": 21.5,
		},
		"count": 3,
		"label": "  Urgent  ",
	}
}

func TestEvaluateExpression_Boolean(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{"literal true", "true", true},
		{"literal false", "false", false},
		{"comparison", "trigger.amount > 100", true},
		{"comparison false", "trigger.amount > 200", false},
		{"equality", "trigger.user.name == 'ada'", true},
		{"inequality", "trigger.user.name != 'bob'", true},
		{"and", "trigger.amount > 100 and count == 3", true},
		{"and short left", "false and count == 3", false},
		{"or", "trigger.amount > 200 or count == 3", true},
		{"not", "not (trigger.amount > 200)", true},
		{"precedence or over and", "false and false or true", true},
		{"arithmetic", "trigger.amount + 50 == 200", true},
		{"arithmetic precedence", "2 + 3 * 4 == 14", true},
		{"division", "trigger.amount / 2 == 75", true},
		{"modulo", "count % 2 == 1", true},
		{"unary minus", "-count < 0", true},
		{"float comparison", "weather.temperature >= 21.5", true},
		{"int float equality", "count == 3.0", true},
		{"string concat", "'in' + 'voice' == 'invoice'", true},
		{"contains", "trigger.subject.contains('overdue')", true},
		{"startswith", "trigger.subject.startswith('Invoice')", true},
		{"endswith", "trigger.subject.endswith('due')", true},
		{"lower", "trigger.subject.lower() == 'invoice overdue'", true},
		{"upper chain", "trigger.user.name.upper() == 'ADA'", true},
		{"strip", "label.strip() == 'Urgent'", true},
		{"method chain", "label.strip().lower().startswith('urg')", true},
		{"truthy string", "trigger.subject", true},
		{"parenthesized", "(count + 1) * 2 == 8", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EvaluateExpression(tt.expression, testContext())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluateExpression_ShortCircuit(t *testing.T) {
	// The right operand resolves a missing name, which would fail if it were
	// evaluated; short-circuiting must prevent that.
	result, err := EvaluateExpression("false and missing.field == 1", testContext())
	require.NoError(t, err)
	assert.False(t, result)

	result, err = EvaluateExpression("true or missing.field == 1", testContext())
	require.NoError(t, err)
	assert.True(t, result)
}

func TestEvaluateExpression_Unsafe(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"bare function call", "os.system('rm -rf /')"},
		{"disallowed method", "trigger.subject.format('x')"},
		{"call without receiver", "len(trigger)"},
		{"assignment", "count = 4"},
		{"indexing", "trigger['amount'] > 1"},
		{"wrong arity", "trigger.subject.contains()"},
		{"extra argument", "trigger.subject.lower('x')"},
		{"unterminated string", "'abc"},
		{"stray character", "count > 1; count"},
		{"trailing garbage", "count > 1 count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateExpression(tt.expression, testContext())
			require.Error(t, err)

			var unsafeErr *UnsafeExpressionError

			assert.ErrorAs(t, err, &unsafeErr)
		})
	}
}

func TestEvaluateExpression_EvaluationErrors(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"missing name", "unknown > 1"},
		{"missing field", "trigger.missing > 1"},
		{"unordered comparison", "trigger.user > 1"},
		{"division by zero", "count / 0 == 1"},
		{"arithmetic on map", "trigger.user + 1 == 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateExpression(tt.expression, testContext())
			require.Error(t, err)

			var evalErr *ConditionEvaluationError

			assert.ErrorAs(t, err, &evalErr)
		})
	}
}

func TestEvaluateExpression_CaseInsensitiveKeywords(t *testing.T) {
	result, err := EvaluateExpression("True AND NOT False", testContext())
	require.NoError(t, err)
	assert.True(t, result)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy([]any{}))
	assert.False(t, Truthy(map[string]any{}))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy(1))
	assert.True(t, Truthy(-0.5))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy([]any{1}))
	assert.True(t, Truthy(map[string]any{"a": 1}))
}
