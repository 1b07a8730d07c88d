package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/areaflow/pkg/models"
)

// ExecutionLogRepository handles execution log database operations.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionLogRepository creates a new execution log repository.
func NewExecutionLogRepository(db *sql.DB, logger *slog.Logger) *ExecutionLogRepository {
	return &ExecutionLogRepository{db: db, logger: logger}
}

// Start creates the log record for a run in the started state.
func (r *ExecutionLogRepository) Start(ctx context.Context, automationID string, contextSnapshot map[string]any) (*models.ExecutionLog, error) {
	log := &models.ExecutionLog{
		ID:           uuid.New().String(),
		AutomationID: automationID,
		Status:       models.ExecutionStatusStarted,
		Output:       contextSnapshot,
		StartedAt:    time.Now().UTC(),
	}

	outputJSON, err := json.Marshal(log.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log output: %w", err)
	}

	query := `
		INSERT INTO execution_logs (id, automation_id, status, output, started_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecContext(ctx, query, log.ID, log.AutomationID, log.Status, outputJSON, log.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert execution log: %w", err)
	}

	return log, nil
}

// Finish persists the completed log with its final status and step trace.
func (r *ExecutionLogRepository) Finish(ctx context.Context, log *models.ExecutionLog) error {
	if log.FinishedAt == nil {
		now := time.Now().UTC()
		log.FinishedAt = &now
	}

	outputJSON, err := json.Marshal(log.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal log output: %w", err)
	}

	stepDetailsJSON, err := json.Marshal(log.StepDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal step details: %w", err)
	}

	query := `
		UPDATE execution_logs
		SET status = $2, output = $3, error_message = $4, step_details = $5, finished_at = $6
		WHERE id = $1
	`

	_, err = r.db.ExecContext(ctx, query,
		log.ID,
		log.Status,
		outputJSON,
		nullableString(log.ErrorMessage),
		stepDetailsJSON,
		log.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution log: %w", err)
	}

	return nil
}

// ListByAutomation returns an automation's logs ordered oldest first.
func (r *ExecutionLogRepository) ListByAutomation(ctx context.Context, automationID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, automation_id, status, output, error_message, step_details, started_at, finished_at
		FROM execution_logs
		WHERE automation_id = $1
		ORDER BY started_at
	`

	rows, err := r.db.QueryContext(ctx, query, automationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	logs := make([]*models.ExecutionLog, 0)

	for rows.Next() {
		var (
			log                         models.ExecutionLog
			outputJSON, stepDetailsJSON []byte
			errorMessage                sql.NullString
		)

		err := rows.Scan(
			&log.ID,
			&log.AutomationID,
			&log.Status,
			&outputJSON,
			&errorMessage,
			&stepDetailsJSON,
			&log.StartedAt,
			&log.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		log.ErrorMessage = errorMessage.String

		if outputJSON != nil {
			err := json.Unmarshal(outputJSON, &log.Output)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal log output: %w", err)
			}
		}

		if stepDetailsJSON != nil {
			err := json.Unmarshal(stepDetailsJSON, &log.StepDetails)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal step details: %w", err)
			}
		}

		logs = append(logs, &log)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating execution logs: %w", err)
	}

	return logs, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
