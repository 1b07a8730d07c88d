// Package registry maps (service, action) pairs to reaction handlers and
// optionally validates step params against a handler's JSON schema before
// dispatch.
package registry

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dukex/areaflow/pkg/protocol"
)

// Registry holds every reaction handler the executor can dispatch to.
type Registry struct {
	logger   *slog.Logger
	handlers map[string]protocol.ReactionHandler
	schemas  map[string]*gojsonschema.Schema
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "registry"),
		handlers: make(map[string]protocol.ReactionHandler),
		schemas:  make(map[string]*gojsonschema.Schema),
	}
}

func handlerKey(service, action string) string {
	return strings.ToLower(service) + "." + strings.ToLower(action)
}

// RegisterReaction registers a handler under service.action, replacing any
// previous registration.
func (r *Registry) RegisterReaction(service, action string, handler protocol.ReactionHandler) {
	r.handlers[handlerKey(service, action)] = handler
	r.logger.Info("Registered reaction handler", "service", service, "action", action)
}

// RegisterSchema attaches a JSON schema to a registered reaction. Params are
// validated against it before the handler runs.
func (r *Registry) RegisterSchema(service, action, schemaJSON string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return fmt.Errorf("invalid schema for %s.%s: %w", service, action, err)
	}

	r.schemas[handlerKey(service, action)] = schema

	return nil
}

// Get returns the handler registered for service.action.
func (r *Registry) Get(service, action string) (protocol.ReactionHandler, bool) {
	handler, ok := r.handlers[handlerKey(service, action)]

	return handler, ok
}

// ValidateParams checks substituted params against the reaction's schema.
// Reactions without a schema accept anything.
func (r *Registry) ValidateParams(service, action string, params map[string]any) error {
	schema, ok := r.schemas[handlerKey(service, action)]
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("failed to validate params for %s.%s: %w", service, action, err)
	}

	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			issues = append(issues, issue.String())
		}

		return fmt.Errorf("invalid params for %s.%s: %s", service, action, strings.Join(issues, "; "))
	}

	return nil
}

// Services returns the distinct services with at least one registered
// reaction, for diagnostics.
func (r *Registry) Services() []string {
	seen := make(map[string]struct{})
	services := make([]string, 0)

	for key := range r.handlers {
		service := strings.SplitN(key, ".", 2)[0]
		if _, ok := seen[service]; ok {
			continue
		}

		seen[service] = struct{}{}
		services = append(services, service)
	}

	return services
}
