package scheduler

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Manager runs one scheduler per connector and ties their lifetimes to OS
// signals.
type Manager struct {
	logger     *slog.Logger
	schedulers []*Scheduler
	mu         sync.Mutex
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger: logger.With("module", "scheduler_manager"),
	}
}

// Add registers a scheduler with the manager. Call before Run.
func (m *Manager) Add(s *Scheduler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.schedulers = append(m.schedulers, s)
}

// Run starts every scheduler and blocks until the context is cancelled or a
// SIGINT/SIGTERM arrives, then stops them all.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	schedulers := make([]*Scheduler, len(m.schedulers))
	copy(schedulers, m.schedulers)
	m.mu.Unlock()

	if len(schedulers) == 0 {
		m.logger.Info("No connectors configured")

		return nil
	}

	for _, s := range schedulers {
		if err := s.Start(ctx); err != nil {
			m.StopAll(ctx)

			return err
		}
	}

	m.logger.Info("Started schedulers", "count", len(schedulers))

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		m.logger.Info("Shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	m.StopAll(context.Background())
	m.logger.Info("Stopped")

	return nil
}

// StopAll stops every registered scheduler, waiting for each bounded by ctx.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	schedulers := make([]*Scheduler, len(m.schedulers))
	copy(schedulers, m.schedulers)
	m.mu.Unlock()

	var wg sync.WaitGroup

	for _, s := range schedulers {
		wg.Add(1)

		go func(s *Scheduler) {
			defer wg.Done()
			s.Stop(ctx)
		}(s)
	}

	wg.Wait()
}
