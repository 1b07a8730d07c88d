// Package scheduler runs the polling loop that turns remote service state
// into automation runs. One Scheduler instance serves one connector; the
// connector supplies the service-specific API calls and the scheduler owns
// dedup, ordering, rate-limit backoff, credential refresh and error
// isolation.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"

	"github.com/dukex/areaflow/pkg/cache"
	"github.com/dukex/areaflow/pkg/models"
	"github.com/dukex/areaflow/pkg/protocol"
	"github.com/dukex/areaflow/pkg/ratelimit"
)

const (
	defaultErrorBackoff       = 30 * time.Second
	credentialRefreshRetries  = 2
	credentialRefreshInterval = time.Second
)

// ErrAlreadyRunning is returned by Start on a scheduler whose loop is active.
var ErrAlreadyRunning = errors.New("scheduler already running")

// RunExecutor runs one automation for one trigger firing. Satisfied by
// executor.Executor.
type RunExecutor interface {
	Execute(ctx context.Context, automation *models.Automation, triggerData map[string]any) (*models.ExecutionLog, error)
}

// Config assembles one connector's scheduler.
type Config struct {
	Connector   protocol.Connector
	Credentials protocol.CredentialStore
	Executor    RunExecutor
	Seen        cache.SeenStore
	Limiter     *ratelimit.Limiter

	// Schedule is an optional cron expression overriding the connector's
	// fixed interval.
	Schedule string

	// ErrorBackoff is the sleep after a failed tick. Zero means the default.
	ErrorBackoff time.Duration

	// Clock defaults to the wall clock; tests inject a fake.
	Clock clockwork.Clock

	Logger *slog.Logger
}

// Scheduler is one connector's polling loop.
type Scheduler struct {
	connector    protocol.Connector
	credentials  protocol.CredentialStore
	executor     RunExecutor
	seen         cache.SeenStore
	limiter      *ratelimit.Limiter
	schedule     cron.Schedule
	errorBackoff time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler validates the config and builds a scheduler.
func NewScheduler(cfg Config) (*Scheduler, error) {
	if cfg.Connector == nil {
		return nil, errors.New("scheduler needs a connector")
	}

	if cfg.Executor == nil {
		return nil, errors.New("scheduler needs an executor")
	}

	if cfg.Seen == nil {
		return nil, errors.New("scheduler needs a seen store")
	}

	var schedule cron.Schedule

	if cfg.Schedule != "" {
		parsed, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
		}

		schedule = parsed
	}

	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = defaultErrorBackoff
	}

	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Scheduler{
		connector:    cfg.Connector,
		credentials:  cfg.Credentials,
		executor:     cfg.Executor,
		seen:         cfg.Seen,
		limiter:      cfg.Limiter,
		schedule:     schedule,
		errorBackoff: cfg.ErrorBackoff,
		clock:        cfg.Clock,
		logger:       cfg.Logger.With("module", "scheduler", "connector", cfg.Connector.Name()),
	}, nil
}

// Start launches the polling loop. It returns immediately; the loop runs
// until Stop is called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	s.logger.Info("Starting scheduler", "interval", s.connector.Interval().String())

	go s.loop(runCtx, s.done)

	return nil
}

// Stop cancels the loop and waits for it to exit, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for scheduler to stop")
	}
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// loop sleeps, ticks, and on a failed tick sleeps the error backoff before
// continuing. The sleep at the top is the only cancellation point;
// cancellation exits cleanly without an error log.
func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")

			return
		case <-s.clock.After(s.nextWait()):
		}

		if err := s.tick(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Scheduler stopped")

				return
			}

			s.logger.Error("Tick failed, backing off", "error", err, "backoff", s.errorBackoff.String())

			select {
			case <-ctx.Done():
				s.logger.Info("Scheduler stopped")

				return
			case <-s.clock.After(s.errorBackoff):
			}
		}
	}
}

func (s *Scheduler) nextWait() time.Duration {
	if s.schedule != nil {
		now := s.clock.Now()

		return s.schedule.Next(now).Sub(now)
	}

	return s.connector.Interval()
}

// tick processes every due automation once. Panics are converted to an error
// so a misbehaving connector triggers the backoff instead of killing the
// process.
func (s *Scheduler) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()

	automations, err := s.connector.FetchDueAutomations(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch due automations: %w", err)
	}

	s.logger.Debug("Tick", "automations", len(automations))

	for _, automation := range automations {
		if ctx.Err() != nil {
			return nil
		}

		if err := s.processAutomation(ctx, automation); err != nil {
			// one automation's failure never aborts the tick
			s.logger.Error("Automation processing failed",
				"automation_id", automation.ID,
				"error", err,
			)
		}
	}

	return nil
}

// processAutomation polls the remote service for one automation and executes
// every newly observed item, oldest first.
func (s *Scheduler) processAutomation(ctx context.Context, automation *models.Automation) error {
	logger := s.logger.With("automation_id", automation.ID)

	credential, err := s.freshCredential(ctx, automation)
	if err != nil {
		var authErr *protocol.ConnectorAuthError
		if errors.As(err, &authErr) {
			logger.Warn("Credential refresh failed, skipping automation", "error", err)

			return nil
		}

		return err
	}

	if s.limiter != nil {
		if err := s.limiter.WaitIfNeeded(ctx, s.connector.Name()); err != nil {
			return err
		}
	}

	items, err := s.connector.FetchCandidateItems(ctx, automation, credential)
	if err != nil {
		var apiErr *protocol.ConnectorAPIError
		if errors.As(err, &apiErr) {
			logger.Warn("Connector API error, treating as no items this tick", "error", err)

			return nil
		}

		return err
	}

	seenCount, err := s.seen.Size(ctx, automation.ID)
	if err != nil {
		return fmt.Errorf("failed to read seen-state size: %w", err)
	}

	// First poll: prime the seen-state without executing, so a pre-existing
	// backlog does not flood the executor.
	if seenCount == 0 && len(items) > 0 {
		for _, item := range items {
			if err := s.seen.Add(ctx, automation.ID, s.connector.ItemID(item)); err != nil {
				return fmt.Errorf("failed to prime seen-state: %w", err)
			}
		}

		logger.Info("Primed seen-state on first poll", "items", len(items))

		return nil
	}

	newItems := make([]protocol.Item, 0)

	for _, item := range items {
		known, err := s.seen.Contains(ctx, automation.ID, s.connector.ItemID(item))
		if err != nil {
			return fmt.Errorf("failed to check seen-state: %w", err)
		}

		if !known {
			newItems = append(newItems, item)
		}
	}

	// Connectors fetch newest-first; runs execute oldest-first.
	for i := len(newItems) - 1; i >= 0; i-- {
		item := newItems[i]
		itemID := s.connector.ItemID(item)

		triggerData := s.connector.BuildTriggerContext(item)

		if _, err := s.executor.Execute(ctx, automation, triggerData); err != nil {
			logger.Error("Run failed to initialize", "item_id", itemID, "error", err)
		}

		if err := s.seen.Add(ctx, automation.ID, itemID); err != nil {
			return fmt.Errorf("failed to mark item seen: %w", err)
		}
	}

	if len(newItems) > 0 {
		logger.Info("Executed new items", "count", len(newItems))
	}

	return nil
}

// freshCredential returns a usable credential for the automation owner,
// refreshing through the credential store when the token is expired. Refresh
// is retried with a constant backoff; a ConnectorAuthError is permanent and
// surfaces immediately.
func (s *Scheduler) freshCredential(ctx context.Context, automation *models.Automation) (*models.Credential, error) {
	if s.credentials == nil {
		return nil, nil
	}

	credential, err := s.credentials.Get(ctx, automation.OwnerID, automation.Trigger.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}

	if credential == nil {
		return nil, &protocol.ConnectorAuthError{
			Service: automation.Trigger.Service,
			Err:     errors.New("owner has no credential for service"),
		}
	}

	if !credential.Expired(s.clock.Now()) {
		return credential, nil
	}

	var refreshed *models.Credential

	backoff := retry.WithMaxRetries(credentialRefreshRetries, retry.NewConstant(credentialRefreshInterval))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		fresh, err := s.credentials.Refresh(ctx, credential)
		if err != nil {
			var authErr *protocol.ConnectorAuthError
			if errors.As(err, &authErr) {
				return err
			}

			return retry.RetryableError(err)
		}

		refreshed = fresh

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to refresh credential: %w", err)
	}

	return refreshed, nil
}
