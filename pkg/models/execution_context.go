package models

import (
	"github.com/google/uuid"
)

// ExecutionContext is the flat key/value event map shared by every step of a
// single automation run. Trigger data seeds it under the "trigger" key;
// reaction handlers add namespaced keys (e.g. "weather.temperature") that
// later steps can read. By contract handlers only ever add keys, never
// delete existing ones, and the context is private to one run.
type ExecutionContext struct {
	ID           string         `json:"id"`
	AutomationID string         `json:"automation_id"`
	Data         map[string]any `json:"data"`
}

// NewExecutionContext builds the context for one run, seeded with the
// trigger payload under the "trigger" key.
func NewExecutionContext(automationID string, triggerData map[string]any) *ExecutionContext {
	data := make(map[string]any, 1)
	if triggerData != nil {
		data["trigger"] = triggerData
	}

	return &ExecutionContext{
		ID:           "run-" + uuid.New().String()[:8],
		AutomationID: automationID,
		Data:         data,
	}
}

// Get returns the value stored under key.
func (c *ExecutionContext) Get(key string) (any, bool) {
	value, ok := c.Data[key]

	return value, ok
}

// Set stores a value under key.
func (c *ExecutionContext) Set(key string, value any) {
	c.Data[key] = value
}

// Merge adds every entry of delta to the context. Existing keys are
// overwritten; handlers are expected to stay inside their own namespace.
func (c *ExecutionContext) Merge(delta map[string]any) {
	for key, value := range delta {
		c.Data[key] = value
	}
}

// Snapshot returns a shallow copy of the context data, safe to persist while
// the run keeps mutating the live map.
func (c *ExecutionContext) Snapshot() map[string]any {
	snapshot := make(map[string]any, len(c.Data))
	for key, value := range c.Data {
		snapshot[key] = value
	}

	return snapshot
}
