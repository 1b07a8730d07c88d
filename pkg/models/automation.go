// Package models defines the core domain models for trigger-action automations.
package models

import "time"

// TriggerConfig identifies the connector event that fires an automation.
type TriggerConfig struct {
	Service string         `json:"service" validate:"required"`
	Action  string         `json:"action"  validate:"required"`
	Params  map[string]any `json:"params,omitempty"`
}

// ReactionConfig is the legacy single-reaction form kept for automations
// created before step graphs existed.
type ReactionConfig struct {
	Service string         `json:"service,omitempty"`
	Action  string         `json:"action,omitempty"`
	Params  map[string]any `json:"params,omitempty"`
}

// Configured reports whether the legacy reaction carries anything runnable.
func (r ReactionConfig) Configured() bool {
	return r.Service != "" && r.Action != ""
}

// Automation is a user-defined trigger plus a graph of reaction steps.
// The executor never mutates a stored automation; it only appends to the
// execution log produced for each run.
type Automation struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"owner_id" validate:"required"`
	Name      string         `json:"name"     validate:"required,min=3"`
	Enabled   bool           `json:"enabled"`
	Trigger   TriggerConfig  `json:"trigger"`
	Reaction  ReactionConfig `json:"reaction,omitempty"`
	Steps     []*Step        `json:"steps,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// HasSteps reports whether the automation uses the step-graph form.
func (a *Automation) HasSteps() bool {
	return len(a.Steps) > 0
}

// FindStep returns the step with the given id.
func (a *Automation) FindStep(id string) (*Step, bool) {
	for _, step := range a.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return nil, false
}

// EntryStep returns the step execution starts from: the step marked as the
// trigger, or the first step when none is marked.
func (a *Automation) EntryStep() (*Step, bool) {
	for _, step := range a.Steps {
		if step.Type == StepTypeTrigger {
			return step, true
		}
	}

	if len(a.Steps) > 0 {
		return a.Steps[0], true
	}

	return nil, false
}
