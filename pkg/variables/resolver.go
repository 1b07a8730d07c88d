// Package variables resolves trigger-derived variables and substitutes them
// into reaction step params.
package variables

import (
	"log/slog"

	"github.com/dukex/areaflow/pkg/template"
)

// Resolver extracts variables from trigger payloads and renders them into
// step params. Extraction is keyed by the trigger's service: a step of any
// service sees the same trigger variables, addressed both under the service
// name (e.g. {{.github.issue.title}}) and under the generic "trigger"
// namespace.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger.With("module", "variables")}
}

// Extract builds the variable map for one run from the trigger payload.
func (r *Resolver) Extract(triggerData map[string]any, triggerService string) map[string]any {
	vars := make(map[string]any, 2)
	if triggerData == nil {
		return vars
	}

	vars["trigger"] = triggerData

	if triggerService != "" {
		vars[triggerService] = triggerData
	}

	return vars
}

// Substitute renders every templated string inside params against the
// extracted variables.
func (r *Resolver) Substitute(params map[string]any, vars map[string]any) (map[string]any, error) {
	if len(params) == 0 {
		return map[string]any{}, nil
	}

	return template.RenderParams(params, vars)
}
