package conditions

import "strings"

// EvaluateSimple evaluates the {field, operator, value} condition shape. The
// field is a dot-separated path resolved against the context; a missing
// segment is a ConditionEvaluationError, never silently false.
func EvaluateSimple(field, operator string, value any, context map[string]any) (bool, error) {
	fieldValue, err := ResolvePath(context, field)
	if err != nil {
		return false, err
	}

	switch operator {
	case "eq":
		return equalValues(fieldValue, value), nil
	case "ne":
		return !equalValues(fieldValue, value), nil
	case "gt", "lt", "gte", "lte":
		order, err := orderValues(fieldValue, value)
		if err != nil {
			return false, err
		}

		switch operator {
		case "gt":
			return order > 0, nil
		case "lt":
			return order < 0, nil
		case "gte":
			return order >= 0, nil
		default:
			return order <= 0, nil
		}
	case "contains":
		return strings.Contains(stringify(fieldValue), stringify(value)), nil
	case "startswith":
		return strings.HasPrefix(stringify(fieldValue), stringify(value)), nil
	case "endswith":
		return strings.HasSuffix(stringify(fieldValue), stringify(value)), nil
	default:
		return false, evaluationErrorf("unsupported operator %q", operator)
	}
}

// ResolvePath resolves a dot-separated field path against the context.
// Handlers write namespaced keys as flat dotted strings, so the whole path is
// tried as a top-level key first, then resolved segment by segment.
func ResolvePath(context map[string]any, path string) (any, error) {
	if path == "" {
		return nil, evaluationErrorf("empty field path")
	}

	if value, ok := context[path]; ok {
		return value, nil
	}

	var current any = context

	for _, segment := range strings.Split(path, ".") {
		value, err := resolveSegment(current, segment)
		if err != nil {
			return nil, evaluationErrorf("cannot resolve %q: %v", path, err)
		}

		current = value
	}

	return current, nil
}
