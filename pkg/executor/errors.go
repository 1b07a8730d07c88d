package executor

import "fmt"

// StepExecutionError reports a fatal failure to initialize an automation run.
// Per-step failures never produce it; they are recorded in the run's log and
// contained there.
type StepExecutionError struct {
	AutomationID string
	Message      string
	Err          error
}

func (e *StepExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("automation %s: %s: %v", e.AutomationID, e.Message, e.Err)
	}

	return fmt.Sprintf("automation %s: %s", e.AutomationID, e.Message)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}

func initErrorf(automationID, format string, args ...any) *StepExecutionError {
	return &StepExecutionError{
		AutomationID: automationID,
		Message:      fmt.Sprintf(format, args...),
	}
}
