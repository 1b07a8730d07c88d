package executor

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/protocol"
	"github.com/dukex/areaflow/pkg/registry"
	"github.com/dukex/areaflow/pkg/variables"
)

// memoryLogs is an in-memory ExecutionLogRepository for tests.
type memoryLogs struct {
	logs []*models.ExecutionLog
}

func (m *memoryLogs) Start(_ context.Context, automationID string, snapshot map[string]any) (*models.ExecutionLog, error) {
	log := &models.ExecutionLog{
		ID:           uuid.New().String(),
		AutomationID: automationID,
		Status:       models.ExecutionStatusStarted,
		Output:       snapshot,
		StartedAt:    time.Now().UTC(),
	}
	m.logs = append(m.logs, log)

	return log, nil
}

func (m *memoryLogs) Finish(_ context.Context, _ *models.ExecutionLog) error {
	return nil
}

func (m *memoryLogs) ListByAutomation(_ context.Context, automationID string) ([]*models.ExecutionLog, error) {
	matched := make([]*models.ExecutionLog, 0)

	for _, log := range m.logs {
		if log.AutomationID == automationID {
			matched = append(matched, log)
		}
	}

	return matched, nil
}

func noopHandler(record *[]string, name string) protocol.ReactionHandler {
	return protocol.ReactionHandlerFunc(func(_ context.Context, _ *models.Automation, _ map[string]any, _ *models.ExecutionContext, _ *slog.Logger) error {
		*record = append(*record, name)

		return nil
	})
}

func newTestExecutor(t *testing.T, reg *registry.Registry) *Executor {
	t.Helper()

	logger := slog.Default()

	return NewExecutor(logger, reg, variables.NewResolver(logger), &memoryLogs{}, nil, nil)
}

func executedStepIDs(log *models.ExecutionLog) []string {
	ids := make([]string, 0, len(log.StepDetails))

	for _, detail := range log.StepDetails {
		if detail.Status == models.ExecutionStatusSkipped {
			continue
		}

		ids = append(ids, detail.StepID)
	}

	return ids
}

func TestExecute_LegacyReaction(t *testing.T) {
	logger := slog.Default()
	reg := registry.NewRegistry(logger)

	var calls []string

	reg.RegisterReaction("system", "log", noopHandler(&calls, "system.log"))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:      "auto-legacy",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Reaction: models.ReactionConfig{
			Service: "system",
			Action:  "log",
			Params:  map[string]any{"message": "hello"},
		},
	}

	log, err := exec.Execute(context.Background(), automation, map[string]any{"id": "1"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, log.Status)
	require.Len(t, log.StepDetails, 1)
	assert.Equal(t, "reaction", log.StepDetails[0].StepID)
	assert.Equal(t, []string{"system.log"}, calls)
}

func TestExecute_NoStepsNoReaction(t *testing.T) {
	exec := newTestExecutor(t, registry.NewRegistry(slog.Default()))

	automation := &models.Automation{
		ID:      "auto-empty",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
	}

	log, err := exec.Execute(context.Background(), automation, nil)

	var initErr *StepExecutionError

	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, initErr.Message, "no steps found")
	require.NotNil(t, log)
	assert.Equal(t, models.ExecutionStatusFailed, log.Status)
}

func TestExecute_ConditionBranches(t *testing.T) {
	logger := slog.Default()

	buildAutomation := func(amount int) *models.Automation {
		return &models.Automation{
			ID:      "auto-branch",
			Trigger: models.TriggerConfig{Service: "bank", Action: "new_transaction"},
			Steps: []*models.Step{
				{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"c1"}}},
				{ID: "c1", Type: models.StepTypeCondition, Config: map[string]any{
					"expression": "trigger.amount > 100",
					"targets":    []string{"big"},
					"elseBranch": []string{"small"},
				}},
				{ID: "big", Type: models.StepTypeReaction, Service: "notify", Action: "big"},
				{ID: "small", Type: models.StepTypeReaction, Service: "notify", Action: "small"},
			},
		}
	}

	t.Run("true follows targets", func(t *testing.T) {
		reg := registry.NewRegistry(logger)

		var calls []string

		reg.RegisterReaction("notify", "big", noopHandler(&calls, "big"))
		reg.RegisterReaction("notify", "small", noopHandler(&calls, "small"))

		exec := newTestExecutor(t, reg)

		log, err := exec.Execute(context.Background(), buildAutomation(150), map[string]any{"amount": 150})
		require.NoError(t, err)

		assert.Equal(t, models.ExecutionStatusSuccess, log.Status)
		assert.Equal(t, []string{"t1", "c1", "big"}, executedStepIDs(log))
		assert.Equal(t, []string{"big"}, calls)
	})

	t.Run("false follows elseBranch", func(t *testing.T) {
		reg := registry.NewRegistry(logger)

		var calls []string

		reg.RegisterReaction("notify", "big", noopHandler(&calls, "big"))
		reg.RegisterReaction("notify", "small", noopHandler(&calls, "small"))

		exec := newTestExecutor(t, reg)

		log, err := exec.Execute(context.Background(), buildAutomation(10), map[string]any{"amount": 10})
		require.NoError(t, err)

		assert.Equal(t, models.ExecutionStatusSuccess, log.Status)
		assert.Equal(t, []string{"t1", "c1", "small"}, executedStepIDs(log))
		assert.Equal(t, []string{"small"}, calls)
	})
}

func TestExecute_ConditionEvaluationErrorFailsStep(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	var calls []string

	reg.RegisterReaction("notify", "send", noopHandler(&calls, "send"))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:      "auto-cond-err",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"c1"}}},
			{ID: "c1", Type: models.StepTypeCondition, Config: map[string]any{
				"expression": "missing.field > 1",
				"targets":    []string{"r1"},
			}},
			{ID: "r1", Type: models.StepTypeReaction, Service: "notify", Action: "send"},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, log.Status)
	assert.Equal(t, []string{"t1", "c1"}, executedStepIDs(log))
	assert.Empty(t, calls)
}

func TestExecute_MissingHandler(t *testing.T) {
	exec := newTestExecutor(t, registry.NewRegistry(slog.Default()))

	automation := &models.Automation{
		ID:      "auto-nohandler",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"r1"}}},
			{ID: "r1", Type: models.StepTypeReaction, Service: "ghost", Action: "boo",
				Config: map[string]any{"targets": []string{"r2"}}},
			{ID: "r2", Type: models.StepTypeReaction, Service: "ghost", Action: "boo"},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, log.Status)
	assert.Contains(t, log.ErrorMessage, "no handler found for ghost.boo")
	// edges out of the failed step are not followed
	assert.Equal(t, []string{"t1", "r1"}, executedStepIDs(log))
}

func TestExecute_HandlerFailureDoesNotStopSiblings(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	var calls []string

	reg.RegisterReaction("a", "fail", protocol.ReactionHandlerFunc(func(_ context.Context, _ *models.Automation, _ map[string]any, _ *models.ExecutionContext, _ *slog.Logger) error {
		return errors.New("boom")
	}))
	reg.RegisterReaction("b", "ok", noopHandler(&calls, "b.ok"))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:      "auto-siblings",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"bad", "good"}}},
			{ID: "bad", Type: models.StepTypeReaction, Service: "a", Action: "fail",
				Config: map[string]any{"targets": []string{"after-bad"}}},
			{ID: "good", Type: models.StepTypeReaction, Service: "b", Action: "ok"},
			{ID: "after-bad", Type: models.StepTypeReaction, Service: "b", Action: "ok"},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, log.Status)
	// the sibling branch queued before the failure still runs, the failed
	// step's own edge does not
	assert.Equal(t, []string{"t1", "bad", "good"}, executedStepIDs(log))
	assert.Equal(t, []string{"b.ok"}, calls)
}

func TestExecute_CycleTerminates(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	var calls []string

	reg.RegisterReaction("loop", "step", noopHandler(&calls, "loop.step"))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:      "auto-cycle",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"r1"}}},
			{ID: "r1", Type: models.StepTypeReaction, Service: "loop", Action: "step",
				Config: map[string]any{"targets": []string{"r2"}}},
			{ID: "r2", Type: models.StepTypeReaction, Service: "loop", Action: "step",
				Config: map[string]any{"targets": []string{"r1"}}},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, log.Status)
	assert.Equal(t, []string{"t1", "r1", "r2"}, executedStepIDs(log))
	assert.Len(t, calls, 2)

	// the revisit of r1 leaves a skipped trace entry instead of a second run
	require.Len(t, log.StepDetails, 4)
	assert.Equal(t, "r1", log.StepDetails[3].StepID)
	assert.Equal(t, models.ExecutionStatusSkipped, log.StepDetails[3].Status)
}

func TestExecute_UnknownStepType(t *testing.T) {
	exec := newTestExecutor(t, registry.NewRegistry(slog.Default()))

	automation := &models.Automation{
		ID:      "auto-unknown",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"x1"}}},
			{ID: "x1", Type: models.StepType("teleport")},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, log.Status)
	assert.Contains(t, log.ErrorMessage, "unknown step type")
}

func TestExecute_DelayIsNoOp(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	var calls []string

	reg.RegisterReaction("notify", "send", noopHandler(&calls, "send"))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:      "auto-delay",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"d1"}}},
			{ID: "d1", Type: models.StepTypeDelay, Config: map[string]any{"seconds": 60, "targets": []string{"r1"}}},
			{ID: "r1", Type: models.StepTypeReaction, Service: "notify", Action: "send"},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, log.Status)
	assert.Equal(t, []string{"t1", "d1", "r1"}, executedStepIDs(log))
	assert.Equal(t, []string{"send"}, calls)
}

func TestExecute_ContextFlowsBetweenSteps(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	reg.RegisterReaction("weather", "fetch", protocol.ReactionHandlerFunc(func(_ context.Context, _ *models.Automation, _ map[string]any, execCtx *models.ExecutionContext, _ *slog.Logger) error {
		execCtx.Set("weather.temperature", 31)

		return nil
	}))

	var received map[string]any

	reg.RegisterReaction("notify", "send", protocol.ReactionHandlerFunc(func(_ context.Context, _ *models.Automation, params map[string]any, _ *models.ExecutionContext, _ *slog.Logger) error {
		received = params

		return nil
	}))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:      "auto-context",
		Trigger: models.TriggerConfig{Service: "openweather", Action: "poll"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"fetch"}}},
			{ID: "fetch", Type: models.StepTypeAction, Service: "weather", Action: "fetch",
				Config: map[string]any{"targets": []string{"check"}}},
			{ID: "check", Type: models.StepTypeCondition, Config: map[string]any{
				"field":    "weather.temperature",
				"operator": "gt",
				"value":    30,
				"targets":  []string{"alert"},
			}},
			{ID: "alert", Type: models.StepTypeReaction, Service: "notify", Action: "send",
				Config: map[string]any{"city": "{{.trigger.city}}"}},
		},
	}

	log, err := exec.Execute(context.Background(), automation, map[string]any{"city": "Recife"})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, log.Status)
	assert.Equal(t, []string{"t1", "fetch", "check", "alert"}, executedStepIDs(log))
	require.NotNil(t, received)
	assert.Equal(t, "Recife", received["city"])
	assert.Equal(t, 31, log.Output["weather.temperature"])
}

func TestExecute_FailedRunMarksSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("executor-test")

	logger := slog.Default()
	exec := NewExecutor(logger, registry.NewRegistry(logger), variables.NewResolver(logger), &memoryLogs{}, nil, tracer)

	automation := &models.Automation{
		ID:      "auto-span",
		Trigger: models.TriggerConfig{Service: "github", Action: "new_star"},
		Steps: []*models.Step{
			{ID: "t1", Type: models.StepTypeTrigger, Config: map[string]any{"targets": []string{"r1"}}},
			{ID: "r1", Type: models.StepTypeReaction, Service: "ghost", Action: "boo"},
		},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)
	require.Equal(t, models.ExecutionStatusFailed, log.Status)

	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, span := range recorder.Ended() {
		byName[span.Name()] = span
	}

	require.Contains(t, byName, "automation.step")
	require.Contains(t, byName, "automation.execute")

	assert.Equal(t, codes.Error, byName["automation.step"].Status().Code)
	assert.Contains(t, byName["automation.step"].Status().Description, "no handler found for ghost.boo")
	assert.NotEmpty(t, byName["automation.step"].Events())
	assert.Equal(t, codes.Error, byName["automation.execute"].Status().Code)
}

func TestExecute_HandlerPanicIsContained(t *testing.T) {
	reg := registry.NewRegistry(slog.Default())

	reg.RegisterReaction("bad", "panic", protocol.ReactionHandlerFunc(func(_ context.Context, _ *models.Automation, _ map[string]any, _ *models.ExecutionContext, _ *slog.Logger) error {
		panic("kaboom")
	}))

	exec := newTestExecutor(t, reg)

	automation := &models.Automation{
		ID:       "auto-panic",
		Trigger:  models.TriggerConfig{Service: "github", Action: "new_star"},
		Reaction: models.ReactionConfig{Service: "bad", Action: "panic"},
	}

	log, err := exec.Execute(context.Background(), automation, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, log.Status)
	assert.Contains(t, log.ErrorMessage, "kaboom")
}
