// Package events defines the lifecycle notifications emitted for each
// automation run.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const Topic = "areaflow.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent  EventType = "run.started"
	RunFinishedEvent EventType = "run.finished"
	RunFailedEvent   EventType = "run.failed"
)

type BaseEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	AutomationID string         `json:"automation_id"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// RunStarted is emitted when the executor begins an automation run.
type RunStarted struct {
	BaseEvent

	ExecutionID string         `json:"execution_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunFinished is emitted when a run completes with every reached step
// succeeding or being skipped.
type RunFinished struct {
	BaseEvent

	ExecutionID   string         `json:"execution_id"`
	Result        map[string]any `json:"result,omitempty"`
	StepsExecuted int            `json:"steps_executed"`
	Duration      time.Duration  `json:"duration"`
}

func (e RunFinished) GetType() EventType {
	return RunFinishedEvent
}

// RunFailed is emitted when at least one reached step failed.
type RunFailed struct {
	BaseEvent

	ExecutionID   string        `json:"execution_id"`
	Error         string        `json:"error"`
	StepsExecuted int           `json:"steps_executed"`
	Duration      time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

func NewBaseEvent(eventType EventType, automationID string) BaseEvent {
	return BaseEvent{
		ID:           uuid.New().String(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		AutomationID: automationID,
		Metadata:     make(map[string]any),
	}
}
