package conditions

import (
	"math"
	"reflect"
	"strings"
)

// EvaluateExpression parses, validates and evaluates a restricted-grammar
// boolean expression against the execution context data. Names resolve
// against top-level context keys only; dotted access descends into nested
// maps or struct fields. The expression is fully validated against the
// allow-list before evaluation, so a disallowed construct can never run.
func EvaluateExpression(expression string, context map[string]any) (bool, error) {
	root, err := parse(expression)
	if err != nil {
		return false, err
	}

	if err := validateTree(root); err != nil {
		return false, err
	}

	value, err := evalNode(root, context)
	if err != nil {
		return false, err
	}

	return Truthy(value), nil
}

func evalNode(node exprNode, context map[string]any) (any, error) {
	switch n := node.(type) {
	case *literalNode:
		return n.value, nil
	case *nameNode:
		value, ok := context[n.name]
		if !ok {
			return nil, evaluationErrorf("name %q not found in context", n.name)
		}

		return value, nil
	case *attrNode:
		target, err := evalNode(n.target, context)
		if err != nil {
			return nil, err
		}

		return resolveSegment(target, n.name)
	case *callNode:
		return evalCall(n, context)
	case *unaryNode:
		return evalUnary(n, context)
	case *binaryNode:
		return evalBinary(n, context)
	case *compareNode:
		return evalCompare(n, context)
	case *boolNode:
		return evalBool(n, context)
	default:
		return nil, evaluationErrorf("unevaluable node at position %d", node.position())
	}
}

func evalBool(n *boolNode, context map[string]any) (any, error) {
	left, err := evalNode(n.left, context)
	if err != nil {
		return nil, err
	}

	// Short-circuit like a standard boolean language: "and" yields the right
	// operand only when the left is truthy, "or" only when it is falsy.
	if n.op == "and" {
		if !Truthy(left) {
			return left, nil
		}

		return evalNode(n.right, context)
	}

	if Truthy(left) {
		return left, nil
	}

	return evalNode(n.right, context)
}

func evalCompare(n *compareNode, context map[string]any) (any, error) {
	left, err := evalNode(n.left, context)
	if err != nil {
		return nil, err
	}

	right, err := evalNode(n.right, context)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equalValues(left, right), nil
	case "!=":
		return !equalValues(left, right), nil
	}

	order, err := orderValues(left, right)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "<":
		return order < 0, nil
	case "<=":
		return order <= 0, nil
	case ">":
		return order > 0, nil
	case ">=":
		return order >= 0, nil
	default:
		return nil, evaluationErrorf("unsupported comparison operator %q", n.op)
	}
}

func evalBinary(n *binaryNode, context map[string]any) (any, error) {
	left, err := evalNode(n.left, context)
	if err != nil {
		return nil, err
	}

	right, err := evalNode(n.right, context)
	if err != nil {
		return nil, err
	}

	if n.op == "+" {
		if ls, ok := left.(string); ok {
			if rs, ok := right.(string); ok {
				return ls + rs, nil
			}
		}
	}

	lf, lok := toFloat(left)

	rf, rok := toFloat(right)
	if !lok || !rok {
		return nil, evaluationErrorf("cannot apply %q to %T and %T", n.op, left, right)
	}

	integral := isInteger(left) && isInteger(right)

	var result float64

	switch n.op {
	case "+":
		result = lf + rf
	case "-":
		result = lf - rf
	case "*":
		result = lf * rf
	case "/":
		if rf == 0 {
			return nil, evaluationErrorf("division by zero")
		}

		result = lf / rf
		integral = integral && result == math.Trunc(result)
	case "%":
		if rf == 0 {
			return nil, evaluationErrorf("modulo by zero")
		}

		result = math.Mod(lf, rf)
	default:
		return nil, evaluationErrorf("unsupported arithmetic operator %q", n.op)
	}

	if integral {
		return int64(result), nil
	}

	return result, nil
}

func evalUnary(n *unaryNode, context map[string]any) (any, error) {
	operand, err := evalNode(n.operand, context)
	if err != nil {
		return nil, err
	}

	if n.op == "not" {
		return !Truthy(operand), nil
	}

	if f, ok := toFloat(operand); ok {
		if isInteger(operand) {
			return -int64(f), nil
		}

		return -f, nil
	}

	return nil, evaluationErrorf("cannot negate %T", operand)
}

func evalCall(n *callNode, context map[string]any) (any, error) {
	target, err := evalNode(n.target, context)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(n.args))

	for i, arg := range n.args {
		value, err := evalNode(arg, context)
		if err != nil {
			return nil, err
		}

		args[i] = value
	}

	subject := stringify(target)

	switch n.method {
	case "contains":
		return strings.Contains(subject, stringify(args[0])), nil
	case "startswith":
		return strings.HasPrefix(subject, stringify(args[0])), nil
	case "endswith":
		return strings.HasSuffix(subject, stringify(args[0])), nil
	case "lower":
		return strings.ToLower(subject), nil
	case "upper":
		return strings.ToUpper(subject), nil
	case "strip":
		return strings.TrimSpace(subject), nil
	default:
		// validateTree runs first, so this is unreachable for parsed input.
		return nil, &UnsafeExpressionError{Construct: "method " + n.method, Position: n.pos}
	}
}

// resolveSegment descends one path segment into a resolved value: map lookup
// first, then exported struct field access.
func resolveSegment(value any, segment string) (any, error) {
	switch v := value.(type) {
	case map[string]any:
		nested, ok := v[segment]
		if !ok {
			return nil, evaluationErrorf("field %q not found", segment)
		}

		return nested, nil
	case map[string]string:
		nested, ok := v[segment]
		if !ok {
			return nil, evaluationErrorf("field %q not found", segment)
		}

		return nested, nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, evaluationErrorf("cannot resolve %q on nil", segment)
		}

		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		field := rv.FieldByName(segment)
		if !field.IsValid() {
			field = rv.FieldByName(strings.ToUpper(segment[:1]) + segment[1:])
		}

		if field.IsValid() && field.CanInterface() {
			return field.Interface(), nil
		}
	}

	return nil, evaluationErrorf("cannot resolve %q on %T", segment, value)
}
