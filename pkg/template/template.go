// Package template renders templated values inside step params. Rendered
// output that looks like JSON, a number or a boolean is coerced back to its
// typed form so params keep their shape after substitution.
package template

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"
)

var funcs = template.FuncMap{
	"now": func() string {
		return time.Now().UTC().Format(time.RFC3339)
	},
	"lower": strings.ToLower,
	"upper": strings.ToUpper,
}

// Render executes one template string against data and coerces the result.
func Render(templateStr string, data map[string]any) (any, error) {
	tmpl, err := template.New("params").Option("missingkey=zero").Funcs(funcs).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString is Render without result coercion, for params that must stay
// strings.
func RenderString(templateStr string, data map[string]any) (string, error) {
	tmpl, err := template.New("params").Option("missingkey=zero").Funcs(funcs).Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	return buf.String(), nil
}

// RenderParams walks a params map and renders every string value that
// contains a template action, recursing into nested maps and slices. Values
// without template actions pass through untouched.
func RenderParams(params map[string]any, data map[string]any) (map[string]any, error) {
	rendered := make(map[string]any, len(params))

	for key, value := range params {
		result, err := renderValue(value, data)
		if err != nil {
			return nil, err
		}

		rendered[key] = result
	}

	return rendered, nil
}

func renderValue(value any, data map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		if !strings.Contains(v, "{{") {
			return v, nil
		}

		return Render(v, data)
	case map[string]any:
		return RenderParams(v, data)
	case []any:
		rendered := make([]any, len(v))

		for i, item := range v {
			result, err := renderValue(item, data)
			if err != nil {
				return nil, err
			}

			rendered[i] = result
		}

		return rendered, nil
	default:
		return value, nil
	}
}
