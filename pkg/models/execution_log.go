package models

import "time"

// ExecutionStatus is the lifecycle state of one automation run or one step
// within it.
type ExecutionStatus string

const (
	ExecutionStatusStarted ExecutionStatus = "started"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
	ExecutionStatusSkipped ExecutionStatus = "skipped"
)

// StepDetail is one entry of the per-step trace inside an execution log.
type StepDetail struct {
	StepID    string          `json:"step_id"`
	Type      StepType        `json:"step_type"`
	Service   string          `json:"service,omitempty"`
	Action    string          `json:"action,omitempty"`
	Status    ExecutionStatus `json:"status"`
	Error     string          `json:"error,omitempty"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

// ExecutionLog records one automation run. It is created when the run starts
// and mutated exactly once at completion; the step-level trace is the nested
// StepDetails list, one entry per executed step.
type ExecutionLog struct {
	ID           string          `json:"id"`
	AutomationID string          `json:"automation_id"`
	Status       ExecutionStatus `json:"status"`
	Output       map[string]any  `json:"output,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StepDetails  []*StepDetail   `json:"step_details,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// Failed reports whether any step of the run failed.
func (l *ExecutionLog) Failed() bool {
	if l.Status == ExecutionStatusFailed {
		return true
	}

	for _, detail := range l.StepDetails {
		if detail.Status == ExecutionStatusFailed {
			return true
		}
	}

	return false
}
