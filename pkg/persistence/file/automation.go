package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/persistence"
)

// AutomationRepository stores automations as JSON files under
// root/automations/<id>.json.
type AutomationRepository struct {
	root string
}

func NewAutomationRepository(root string) *AutomationRepository {
	return &AutomationRepository{root: root}
}

func (ar *AutomationRepository) dir() string {
	return path.Join(ar.root, "automations")
}

func (ar *AutomationRepository) filePath(id string) string {
	return path.Join(ar.dir(), id+".json")
}

func (ar *AutomationRepository) All(ctx context.Context) ([]*models.Automation, error) {
	if _, err := os.Stat(ar.dir()); os.IsNotExist(err) {
		return []*models.Automation{}, nil
	}

	root := os.DirFS(ar.dir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list automation files: %w", err)
	}

	automations := make([]*models.Automation, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		automation, err := ar.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load automation %s: %w", id, err)
		}

		automations = append(automations, automation)
	}

	return automations, nil
}

func (ar *AutomationRepository) GetByID(_ context.Context, id string) (*models.Automation, error) {
	data, err := os.ReadFile(ar.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read automation %s: %w", id, err)
	}

	var automation models.Automation
	if err := json.Unmarshal(data, &automation); err != nil {
		return nil, fmt.Errorf("failed to decode automation %s: %w", id, err)
	}

	return &automation, nil
}

func (ar *AutomationRepository) FetchEnabled(ctx context.Context, triggerService, triggerAction string) ([]*models.Automation, error) {
	all, err := ar.All(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Automation, 0)

	for _, automation := range all {
		if !automation.Enabled {
			continue
		}

		if automation.Trigger.Service != triggerService {
			continue
		}

		if triggerAction != "" && automation.Trigger.Action != triggerAction {
			continue
		}

		matched = append(matched, automation)
	}

	return matched, nil
}

func (ar *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	if err := automation.Validate(); err != nil {
		return fmt.Errorf("invalid automation: %w", err)
	}

	if automation.ID == "" {
		automation.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if automation.CreatedAt.IsZero() {
		automation.CreatedAt = now
	}

	automation.UpdatedAt = now

	if err := os.MkdirAll(ar.dir(), 0o755); err != nil {
		return fmt.Errorf("failed to create automations directory: %w", err)
	}

	data, err := json.MarshalIndent(automation, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode automation %s: %w", automation.ID, err)
	}

	if err := os.WriteFile(ar.filePath(automation.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write automation %s: %w", automation.ID, err)
	}

	return nil
}

func (ar *AutomationRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(ar.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrNotFound
		}

		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}

	return nil
}
