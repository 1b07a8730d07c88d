package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/areaflow/pkg/models"
)

// ExecutionLogRepository stores run logs as JSON files under
// root/executions/<automation_id>/<log_id>.json.
type ExecutionLogRepository struct {
	root string
}

func NewExecutionLogRepository(root string) *ExecutionLogRepository {
	return &ExecutionLogRepository{root: root}
}

func (lr *ExecutionLogRepository) dir(automationID string) string {
	return path.Join(lr.root, "executions", automationID)
}

func (lr *ExecutionLogRepository) filePath(automationID, logID string) string {
	return path.Join(lr.dir(automationID), logID+".json")
}

// Start creates the log record for a run in the started state.
func (lr *ExecutionLogRepository) Start(_ context.Context, automationID string, contextSnapshot map[string]any) (*models.ExecutionLog, error) {
	log := &models.ExecutionLog{
		ID:           uuid.New().String(),
		AutomationID: automationID,
		Status:       models.ExecutionStatusStarted,
		Output:       contextSnapshot,
		StartedAt:    time.Now().UTC(),
	}

	if err := lr.write(log); err != nil {
		return nil, err
	}

	return log, nil
}

// Finish persists the completed log with its final status and step trace.
func (lr *ExecutionLogRepository) Finish(_ context.Context, log *models.ExecutionLog) error {
	if log.FinishedAt == nil {
		now := time.Now().UTC()
		log.FinishedAt = &now
	}

	return lr.write(log)
}

func (lr *ExecutionLogRepository) ListByAutomation(_ context.Context, automationID string) ([]*models.ExecutionLog, error) {
	dir := lr.dir(automationID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []*models.ExecutionLog{}, nil
	}

	jsonFiles, err := fs.Glob(os.DirFS(dir), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list execution logs: %w", err)
	}

	logs := make([]*models.ExecutionLog, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(path.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read execution log %s: %w", file, err)
		}

		var log models.ExecutionLog
		if err := json.Unmarshal(data, &log); err != nil {
			return nil, fmt.Errorf("failed to decode execution log %s: %w", file, err)
		}

		logs = append(logs, &log)
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].StartedAt.Before(logs[j].StartedAt)
	})

	return logs, nil
}

func (lr *ExecutionLogRepository) write(log *models.ExecutionLog) error {
	if err := os.MkdirAll(lr.dir(log.AutomationID), 0o755); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution log %s: %w", log.ID, err)
	}

	if err := os.WriteFile(lr.filePath(log.AutomationID, log.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution log %s: %w", log.ID, err)
	}

	return nil
}
