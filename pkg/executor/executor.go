// Package executor walks an automation's step graph for one trigger firing
// and records an execution log with a per-step trace.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukex/areaflow/pkg/conditions"
	"github.com/dukex/areaflow/pkg/eventbus"
	"github.com/dukex/areaflow/pkg/events"
	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/otelhelper"
	"github.com/dukex/areaflow/pkg/persistence"
	"github.com/dukex/areaflow/pkg/protocol"
	"github.com/dukex/areaflow/pkg/registry"
	"github.com/dukex/areaflow/pkg/variables"
)

// legacyStepID names the synthetic step entry produced when an automation
// without steps runs its single configured reaction.
const legacyStepID = "reaction"

// Executor runs automations. Per-step failures are contained in the run's
// log; Execute only returns an error when the run could not be initialized
// at all.
type Executor struct {
	logger    *slog.Logger
	registry  *registry.Registry
	variables *variables.Resolver
	logs      persistence.ExecutionLogRepository
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
}

// NewExecutor creates an executor. The publisher and tracer may be nil; run
// events and spans are then skipped.
func NewExecutor(
	logger *slog.Logger,
	reg *registry.Registry,
	resolver *variables.Resolver,
	logs persistence.ExecutionLogRepository,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
) *Executor {
	return &Executor{
		logger:    logger.With("module", "executor"),
		registry:  reg,
		variables: resolver,
		logs:      logs,
		publisher: publisher,
		tracer:    tracer,
	}
}

// Execute runs one automation for one trigger firing and returns the
// completed execution log. The log is persisted even when the run fails.
func (e *Executor) Execute(ctx context.Context, automation *models.Automation, triggerData map[string]any) (*models.ExecutionLog, error) {
	if automation == nil {
		return nil, initErrorf("", "nil automation")
	}

	execCtx := models.NewExecutionContext(automation.ID, triggerData)

	log, err := e.logs.Start(ctx, automation.ID, execCtx.Snapshot())
	if err != nil {
		return nil, &StepExecutionError{
			AutomationID: automation.ID,
			Message:      "failed to start execution log",
			Err:          err,
		}
	}

	logger := e.logger.With("automation_id", automation.ID, "execution_id", execCtx.ID)

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "automation.execute",
			attribute.String(otelhelper.AutomationIDKey, automation.ID),
			attribute.String(otelhelper.ExecutionIDKey, execCtx.ID),
		)
		defer span.End()
	}

	e.publishStarted(ctx, automation, execCtx, triggerData)

	vars := e.variables.Extract(triggerData, automation.Trigger.Service)

	if automation.HasSteps() {
		e.runSteps(ctx, logger, automation, execCtx, vars, log)
	} else if automation.Reaction.Configured() {
		e.runLegacyReaction(ctx, logger, automation, execCtx, vars, log)
	} else {
		initErr := initErrorf(automation.ID, "no steps found")

		log.Status = models.ExecutionStatusFailed
		log.ErrorMessage = initErr.Message
		e.finish(ctx, logger, automation, execCtx, log)

		return log, initErr
	}

	log.Output = execCtx.Snapshot()

	if log.Failed() {
		log.Status = models.ExecutionStatusFailed
		log.ErrorMessage = firstFailure(log)
	} else {
		log.Status = models.ExecutionStatusSuccess
	}

	e.finish(ctx, logger, automation, execCtx, log)

	return log, nil
}

// runSteps walks the step graph breadth-first from the entry step. A visited
// set guarantees termination on cyclic graphs: a step reached twice within
// one run is not re-executed; the revisit leaves a skipped trace entry.
func (e *Executor) runSteps(
	ctx context.Context,
	logger *slog.Logger,
	automation *models.Automation,
	execCtx *models.ExecutionContext,
	vars map[string]any,
	log *models.ExecutionLog,
) {
	entry, _ := automation.EntryStep()

	queue := []string{entry.ID}
	visited := make(map[string]struct{}, len(automation.Steps))

	for len(queue) > 0 {
		stepID := queue[0]
		queue = queue[1:]

		if _, done := visited[stepID]; done {
			logger.Warn("Step already executed in this run, skipping", "step_id", stepID)
			log.StepDetails = append(log.StepDetails, &models.StepDetail{
				StepID:    stepID,
				Status:    models.ExecutionStatusSkipped,
				StartedAt: time.Now().UTC(),
			})

			continue
		}

		visited[stepID] = struct{}{}

		step, ok := automation.FindStep(stepID)
		if !ok {
			log.StepDetails = append(log.StepDetails, &models.StepDetail{
				StepID:    stepID,
				Status:    models.ExecutionStatusFailed,
				Error:     fmt.Sprintf("step %s not found", stepID),
				StartedAt: time.Now().UTC(),
			})

			continue
		}

		next := e.executeStep(ctx, logger, automation, step, execCtx, vars, log)
		queue = append(queue, next...)
	}
}

// executeStep runs one step, appends its trace entry and returns the step ids
// to follow. Failed steps never return edges; sibling branches already queued
// are unaffected.
func (e *Executor) executeStep(
	ctx context.Context,
	logger *slog.Logger,
	automation *models.Automation,
	step *models.Step,
	execCtx *models.ExecutionContext,
	vars map[string]any,
	log *models.ExecutionLog,
) []string {
	detail := &models.StepDetail{
		StepID:    step.ID,
		Type:      step.Type,
		Service:   step.Service,
		Action:    step.Action,
		Status:    models.ExecutionStatusSuccess,
		StartedAt: time.Now().UTC(),
	}

	if e.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, e.tracer, "automation.step",
			attribute.String(otelhelper.StepIDKey, step.ID),
			attribute.String(otelhelper.StepTypeKey, string(step.Type)),
		)
		defer span.End()
	}

	var next []string

	switch step.Type {
	case models.StepTypeTrigger:
		next = step.Targets()

	case models.StepTypeCondition:
		matched, err := conditions.Evaluate(step.Config, execCtx)
		if err != nil {
			detail.Status = models.ExecutionStatusFailed
			detail.Error = err.Error()
			logger.Error("Condition evaluation failed", "step_id", step.ID, "error", err)

			break
		}

		if matched {
			next = step.Targets()
		} else {
			next = step.ElseBranch()
		}

	case models.StepTypeAction, models.StepTypeReaction:
		err := e.runReaction(ctx, logger, automation, step.Service, step.Action, stepParams(step), execCtx, vars)
		if err != nil {
			detail.Status = models.ExecutionStatusFailed
			detail.Error = err.Error()
			logger.Error("Reaction step failed", "step_id", step.ID, "service", step.Service, "action", step.Action, "error", err)

			break
		}

		next = step.Targets()

	case models.StepTypeDelay:
		// Delay scheduling is not implemented; the step is recorded and the
		// success edge followed immediately.
		logger.Info("Delay step is a no-op, continuing", "step_id", step.ID)

		next = step.Targets()

	default:
		detail.Status = models.ExecutionStatusFailed
		detail.Error = fmt.Sprintf("unknown step type %q", step.Type)
		logger.Error("Unknown step type", "step_id", step.ID, "step_type", step.Type)
	}

	if detail.Status == models.ExecutionStatusFailed {
		otelhelper.SetError(trace.SpanFromContext(ctx), errors.New(detail.Error),
			attribute.String(otelhelper.StepIDKey, step.ID),
		)
	}

	detail.Duration = time.Since(detail.StartedAt)
	log.StepDetails = append(log.StepDetails, detail)

	return next
}

// runLegacyReaction executes the single configured reaction of a stepless
// automation, producing a run with exactly one step entry.
func (e *Executor) runLegacyReaction(
	ctx context.Context,
	logger *slog.Logger,
	automation *models.Automation,
	execCtx *models.ExecutionContext,
	vars map[string]any,
	log *models.ExecutionLog,
) {
	detail := &models.StepDetail{
		StepID:    legacyStepID,
		Type:      models.StepTypeReaction,
		Service:   automation.Reaction.Service,
		Action:    automation.Reaction.Action,
		Status:    models.ExecutionStatusSuccess,
		StartedAt: time.Now().UTC(),
	}

	err := e.runReaction(ctx, logger, automation,
		automation.Reaction.Service, automation.Reaction.Action, automation.Reaction.Params, execCtx, vars)
	if err != nil {
		detail.Status = models.ExecutionStatusFailed
		detail.Error = err.Error()
		logger.Error("Legacy reaction failed", "service", automation.Reaction.Service, "action", automation.Reaction.Action, "error", err)
	}

	detail.Duration = time.Since(detail.StartedAt)
	log.StepDetails = append(log.StepDetails, detail)
}

func (e *Executor) runReaction(
	ctx context.Context,
	logger *slog.Logger,
	automation *models.Automation,
	service, action string,
	rawParams map[string]any,
	execCtx *models.ExecutionContext,
	vars map[string]any,
) error {
	handler, ok := e.registry.Get(service, action)
	if !ok {
		return fmt.Errorf("no handler found for %s.%s", service, action)
	}

	params, err := e.variables.Substitute(rawParams, vars)
	if err != nil {
		return fmt.Errorf("failed to substitute variables: %w", err)
	}

	if err := e.registry.ValidateParams(service, action, params); err != nil {
		return err
	}

	return invoke(ctx, handler, automation, params, execCtx, logger)
}

// invoke runs a handler, converting a panic into an error so one reaction
// cannot take down the scheduler process.
func invoke(
	ctx context.Context,
	handler protocol.ReactionHandler,
	automation *models.Automation,
	params map[string]any,
	execCtx *models.ExecutionContext,
	logger *slog.Logger,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	return handler.Execute(ctx, automation, params, execCtx, logger)
}

func (e *Executor) finish(
	ctx context.Context,
	logger *slog.Logger,
	automation *models.Automation,
	execCtx *models.ExecutionContext,
	log *models.ExecutionLog,
) {
	if err := e.logs.Finish(ctx, log); err != nil {
		logger.Error("Failed to persist execution log", "error", err)
	}

	if log.Status == models.ExecutionStatusFailed {
		otelhelper.SetError(trace.SpanFromContext(ctx), errors.New(log.ErrorMessage),
			attribute.String(otelhelper.AutomationIDKey, automation.ID),
		)
		logger.Warn("Automation run failed", "error", log.ErrorMessage, "steps", len(log.StepDetails))
		e.publishFailed(ctx, automation, execCtx, log)

		return
	}

	logger.Info("Automation run finished", "steps", len(log.StepDetails))
	e.publishFinished(ctx, automation, execCtx, log)
}

func (e *Executor) publishStarted(ctx context.Context, automation *models.Automation, execCtx *models.ExecutionContext, triggerData map[string]any) {
	if e.publisher == nil {
		return
	}

	event := events.RunStarted{
		BaseEvent:   events.NewBaseEvent(events.RunStartedEvent, automation.ID),
		ExecutionID: execCtx.ID,
		TriggerData: triggerData,
	}

	if err := e.publisher.Publish(ctx, automation.ID, event); err != nil {
		e.logger.Error("Failed to publish run started event", "automation_id", automation.ID, "error", err)
	}
}

func (e *Executor) publishFinished(ctx context.Context, automation *models.Automation, execCtx *models.ExecutionContext, log *models.ExecutionLog) {
	if e.publisher == nil {
		return
	}

	event := events.RunFinished{
		BaseEvent:     events.NewBaseEvent(events.RunFinishedEvent, automation.ID),
		ExecutionID:   execCtx.ID,
		Result:        log.Output,
		StepsExecuted: len(log.StepDetails),
		Duration:      durationOf(log),
	}

	if err := e.publisher.Publish(ctx, automation.ID, event); err != nil {
		e.logger.Error("Failed to publish run finished event", "automation_id", automation.ID, "error", err)
	}
}

func (e *Executor) publishFailed(ctx context.Context, automation *models.Automation, execCtx *models.ExecutionContext, log *models.ExecutionLog) {
	if e.publisher == nil {
		return
	}

	event := events.RunFailed{
		BaseEvent:     events.NewBaseEvent(events.RunFailedEvent, automation.ID),
		ExecutionID:   execCtx.ID,
		Error:         log.ErrorMessage,
		StepsExecuted: len(log.StepDetails),
		Duration:      durationOf(log),
	}

	if err := e.publisher.Publish(ctx, automation.ID, event); err != nil {
		e.logger.Error("Failed to publish run failed event", "automation_id", automation.ID, "error", err)
	}
}

// stepParams returns the step config without its edge keys, ready for
// variable substitution.
func stepParams(step *models.Step) map[string]any {
	params := make(map[string]any, len(step.Config))

	for key, value := range step.Config {
		if key == "targets" || key == "elseBranch" {
			continue
		}

		params[key] = value
	}

	return params
}

func firstFailure(log *models.ExecutionLog) string {
	for _, detail := range log.StepDetails {
		if detail.Status == models.ExecutionStatusFailed {
			return detail.Error
		}
	}

	return log.ErrorMessage
}

func durationOf(log *models.ExecutionLog) time.Duration {
	if log.FinishedAt == nil {
		return time.Since(log.StartedAt)
	}

	return log.FinishedAt.Sub(log.StartedAt)
}
