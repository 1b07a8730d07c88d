package models

// StepType classifies a node in an automation's step graph.
type StepType string

const (
	StepTypeTrigger   StepType = "trigger"
	StepTypeCondition StepType = "condition"
	StepTypeAction    StepType = "action"
	StepTypeReaction  StepType = "reaction"
	StepTypeDelay     StepType = "delay"
)

// Step is one node in an automation's step graph. Edges are stored inside the
// config blob as lists of step ids: "targets" for the success edge and, for
// condition steps, "elseBranch" for the false edge. Step ids are unique
// within an automation; edges may form cycles and the executor must tolerate
// them.
type Step struct {
	ID      string         `json:"id" validate:"required"`
	Type    StepType       `json:"step_type" validate:"required"`
	Service string         `json:"service,omitempty"`
	Action  string         `json:"action,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
}

// IsReaction reports whether the step dispatches a reaction handler. The
// "action" and "reaction" type names are interchangeable.
func (s *Step) IsReaction() bool {
	return s.Type == StepTypeAction || s.Type == StepTypeReaction
}

// Targets returns the step ids this step's success edge points at.
func (s *Step) Targets() []string {
	return stepIDList(s.Config, "targets")
}

// ElseBranch returns the step ids a condition step follows when it
// evaluates to false.
func (s *Step) ElseBranch() []string {
	return stepIDList(s.Config, "elseBranch")
}

func stepIDList(config map[string]any, key string) []string {
	if config == nil {
		return nil
	}

	switch raw := config[key].(type) {
	case []string:
		return raw
	case []any:
		ids := make([]string, 0, len(raw))

		for _, item := range raw {
			if id, ok := item.(string); ok {
				ids = append(ids, id)
			}
		}

		return ids
	default:
		return nil
	}
}
