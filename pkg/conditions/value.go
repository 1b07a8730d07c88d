package conditions

import (
	"fmt"
	"reflect"
	"strings"
)

// Truthy converts an arbitrary resolved value to a boolean: nil is false,
// numbers are true when non-zero, strings when non-empty, slices and maps
// when they have elements.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, _ := toFloat(v)

		return f != 0
	case float32, float64:
		f, _ := toFloat(v)

		return f != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		rv := reflect.ValueOf(value)
		switch rv.Kind() {
		case reflect.Slice, reflect.Map, reflect.Array:
			return rv.Len() > 0
		default:
			return true
		}
	}
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func isInteger(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}

// stringify is the string coercion used by contains/startswith/endswith and
// the method allow-list.
func stringify(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", value)
}

// equalValues compares two values for equality with numeric coercion, so
// 3 == 3.0 holds regardless of the JSON decoder's number type.
func equalValues(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}

		return false
	}

	return reflect.DeepEqual(a, b)
}

// orderValues compares two ordered values, returning -1, 0 or 1. Numbers
// compare numerically and strings lexicographically; anything else is not
// ordered.
func orderValues(a, b any) (int, error) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}

	as, aok := a.(string)

	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), nil
	}

	return 0, evaluationErrorf("cannot order %T and %T", a, b)
}
