package conditions

import "github.com/dukex/areaflow/pkg/models"

// Evaluate evaluates a condition step config against the run's execution
// context. The config carries either an "expression" string in the
// restricted grammar or the simple {field, operator, value} triple.
func Evaluate(config map[string]any, execCtx *models.ExecutionContext) (bool, error) {
	if execCtx == nil {
		return false, evaluationErrorf("nil execution context")
	}

	return EvaluateConfig(config, execCtx.Data)
}

// EvaluateConfig is Evaluate for callers that hold a bare context map.
func EvaluateConfig(config map[string]any, context map[string]any) (bool, error) {
	if len(config) == 0 {
		return false, evaluationErrorf("empty condition config")
	}

	if raw, ok := config["expression"]; ok {
		expression, ok := raw.(string)
		if !ok {
			return false, evaluationErrorf("expression must be a string, got %T", raw)
		}

		return EvaluateExpression(expression, context)
	}

	field, _ := config["field"].(string)

	operator, _ := config["operator"].(string)
	if field == "" || operator == "" {
		return false, evaluationErrorf("condition config needs either an expression or a field and operator")
	}

	return EvaluateSimple(field, operator, config["value"], context)
}
