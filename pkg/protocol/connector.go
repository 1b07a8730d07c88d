package protocol

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukex/areaflow/pkg/models"
)

// Item is one candidate remote object observed by a connector poll. The
// scheduler framework only ever identifies items and turns them into trigger
// contexts, so the concrete type stays with the connector.
type Item any

// Connector supplies the service-specific half of the polling scheduler
// framework: which automations are due, what the remote service currently
// shows for each, and how an observed item becomes a trigger context.
type Connector interface {
	// Name identifies the connector in logs and rate-limit routes.
	Name() string

	// Interval is the sleep between polls. A cron schedule configured on the
	// scheduler takes precedence.
	Interval() time.Duration

	// FetchDueAutomations returns the enabled automations whose trigger
	// belongs to this connector.
	FetchDueAutomations(ctx context.Context) ([]*models.Automation, error)

	// FetchCandidateItems polls the remote service for one automation,
	// newest item first. Remote calls must be bounded by the connector's
	// own timeout. A ConnectorAPIError is treated as "no items this tick".
	FetchCandidateItems(ctx context.Context, automation *models.Automation, credential *models.Credential) ([]Item, error)

	// ItemID returns the stable identity used for seen-state dedup.
	ItemID(item Item) string

	// BuildTriggerContext turns an observed item into the trigger payload
	// that seeds one run's execution context.
	BuildTriggerContext(item Item) map[string]any
}

// AutomationSource supplies the enabled automations for a connector's
// trigger. Satisfied by the persistence layer's automation repository.
type AutomationSource interface {
	FetchEnabled(ctx context.Context, triggerService, triggerAction string) ([]*models.Automation, error)
}

// ConnectorProvider is the symbol a connector plugin exports under
// "Connector": a factory building the connector from its runtime
// dependencies.
type ConnectorProvider interface {
	New(logger *slog.Logger, automations AutomationSource) (Connector, error)
}

// CredentialStore provides fresh credentials for automation owners. Token
// exchange and encryption live outside the core.
type CredentialStore interface {
	// Get returns the stored credential, or nil when the owner never
	// connected the service.
	Get(ctx context.Context, userID, service string) (*models.Credential, error)

	// Refresh exchanges an expired credential for a fresh one.
	Refresh(ctx context.Context, credential *models.Credential) (*models.Credential, error)
}

// VariableResolver extracts trigger-derived variables and substitutes them
// into step params. Extraction is keyed by the trigger's service, not the
// step's.
type VariableResolver interface {
	Extract(triggerData map[string]any, triggerService string) map[string]any
	Substitute(params map[string]any, variables map[string]any) (map[string]any, error)
}
