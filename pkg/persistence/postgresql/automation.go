package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/persistence"
)

// AutomationRepository handles automation-related database operations.
type AutomationRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAutomationRepository creates a new automation repository.
func NewAutomationRepository(db *sql.DB, logger *slog.Logger) *AutomationRepository {
	return &AutomationRepository{db: db, logger: logger}
}

const automationColumns = `
	id
  , owner_id
  , name
  , enabled
  , trigger_service
  , trigger_action
  , trigger_params
  , reaction
  , steps
  , created_at
  , updated_at
`

// All returns every automation ordered by creation time.
func (r *AutomationRepository) All(ctx context.Context) ([]*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	return r.collect(ctx, rows)
}

// FetchEnabled returns the enabled automations whose trigger matches the given
// service and, when action is non-empty, the given action.
func (r *AutomationRepository) FetchEnabled(ctx context.Context, triggerService, triggerAction string) ([]*models.Automation, error) {
	query := `
		SELECT ` + automationColumns + `
		FROM automations
		WHERE enabled
		  AND trigger_service = $1
		  AND ($2 = '' OR trigger_action = $2)
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, triggerService, triggerAction)
	if err != nil {
		return nil, fmt.Errorf("failed to query enabled automations: %w", err)
	}

	return r.collect(ctx, rows)
}

func (r *AutomationRepository) GetByID(ctx context.Context, id string) (*models.Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE id = $1`

	automation, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to scan automation: %w", err)
	}

	return automation, nil
}

// Save inserts or updates an automation.
func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	if err := automation.Validate(); err != nil {
		return fmt.Errorf("invalid automation: %w", err)
	}

	now := time.Now().UTC()

	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	if automation.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate automation ID: %w", err)
		}

		automation.ID = id.String()
	}

	triggerParamsJSON, err := json.Marshal(automation.Trigger.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger params: %w", err)
	}

	reactionJSON, err := json.Marshal(automation.Reaction)
	if err != nil {
		return fmt.Errorf("failed to marshal reaction: %w", err)
	}

	stepsJSON, err := json.Marshal(automation.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	query := `
		INSERT INTO automations (id, owner_id, name, enabled,
			trigger_service, trigger_action, trigger_params, reaction, steps,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			name = EXCLUDED.name,
			enabled = EXCLUDED.enabled,
			trigger_service = EXCLUDED.trigger_service,
			trigger_action = EXCLUDED.trigger_action,
			trigger_params = EXCLUDED.trigger_params,
			reaction = EXCLUDED.reaction,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		automation.ID,
		automation.OwnerID,
		automation.Name,
		automation.Enabled,
		automation.Trigger.Service,
		automation.Trigger.Action,
		triggerParamsJSON,
		reactionJSON,
		stepsJSON,
		automation.CreatedAt,
		automation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save automation: %w", err)
	}

	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM automations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete automation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

func (r *AutomationRepository) collect(ctx context.Context, rows *sql.Rows) ([]*models.Automation, error) {
	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		automation, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan automation: %w", err)
		}

		automations = append(automations, automation)
	}

	err := rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating automations: %w", err)
	}

	return automations, nil
}

func (r *AutomationRepository) scan(scanner interface {
	Scan(dest ...any) error
}) (*models.Automation, error) {
	var (
		auto                                       models.Automation
		triggerParamsJSON, reactionJSON, stepsJSON []byte
	)

	err := scanner.Scan(
		&auto.ID,
		&auto.OwnerID,
		&auto.Name,
		&auto.Enabled,
		&auto.Trigger.Service,
		&auto.Trigger.Action,
		&triggerParamsJSON,
		&reactionJSON,
		&stepsJSON,
		&auto.CreatedAt,
		&auto.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if triggerParamsJSON != nil {
		err := json.Unmarshal(triggerParamsJSON, &auto.Trigger.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger params: %w", err)
		}
	}

	if reactionJSON != nil {
		err := json.Unmarshal(reactionJSON, &auto.Reaction)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal reaction: %w", err)
		}
	}

	if stepsJSON != nil {
		err := json.Unmarshal(stepsJSON, &auto.Steps)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
		}
	}

	return &auto, nil
}
