// Package conditions evaluates user-authored branching conditions against an
// automation run's execution context. Two shapes are supported: a simple
// {field, operator, value} form and a restricted expression language parsed
// by a dedicated recursive-descent parser. Condition strings are
// user-authored, so the expression grammar is allow-listed and validated
// structurally before anything is evaluated; there is no path to arbitrary
// code execution.
package conditions

import "fmt"

// UnsafeExpressionError reports an expression construct outside the
// evaluator's allow-list. The offending expression is rejected before any
// evaluation happens, so it can have no side effects.
type UnsafeExpressionError struct {
	Construct string
	Position  int
}

func (e *UnsafeExpressionError) Error() string {
	return fmt.Sprintf("unsafe expression: %s at position %d", e.Construct, e.Position)
}

// ConditionEvaluationError reports a failure to resolve or apply an otherwise
// well-formed condition, e.g. a missing context field or an unsupported
// operator.
type ConditionEvaluationError struct {
	Reason string
	Err    error
}

func (e *ConditionEvaluationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("condition evaluation failed: %s: %v", e.Reason, e.Err)
	}

	return "condition evaluation failed: " + e.Reason
}

func (e *ConditionEvaluationError) Unwrap() error {
	return e.Err
}

func evaluationErrorf(format string, args ...any) *ConditionEvaluationError {
	return &ConditionEvaluationError{Reason: fmt.Sprintf(format, args...)}
}
