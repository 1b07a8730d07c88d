// Package persistence provides the data storage abstraction for automations,
// execution logs and credentials.
package persistence

import (
	"context"
	"errors"

	"github.com/dukex/areaflow/pkg/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// AutomationRepository stores user-defined automations.
type AutomationRepository interface {
	// FetchEnabled returns the enabled automations whose trigger matches the
	// given service and, when action is non-empty, the given action.
	FetchEnabled(ctx context.Context, triggerService, triggerAction string) ([]*models.Automation, error)

	GetByID(ctx context.Context, id string) (*models.Automation, error)
	Save(ctx context.Context, automation *models.Automation) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*models.Automation, error)
}

// ExecutionLogRepository stores one log per automation run. Start creates
// the record in the started state; Finish mutates it exactly once with the
// final status, output and step trace.
type ExecutionLogRepository interface {
	Start(ctx context.Context, automationID string, contextSnapshot map[string]any) (*models.ExecutionLog, error)
	Finish(ctx context.Context, log *models.ExecutionLog) error
	ListByAutomation(ctx context.Context, automationID string) ([]*models.ExecutionLog, error)
}

// CredentialRepository stores service credentials per owner.
type CredentialRepository interface {
	Get(ctx context.Context, userID, service string) (*models.Credential, error)
	Save(ctx context.Context, credential *models.Credential) error
	Delete(ctx context.Context, userID, service string) error
}

// Persistence bundles the repositories behind one backend.
type Persistence interface {
	AutomationRepository() AutomationRepository
	ExecutionLogRepository() ExecutionLogRepository
	CredentialRepository() CredentialRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
