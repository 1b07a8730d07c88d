package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/dukex/areaflow/pkg/cmd"
	"github.com/dukex/areaflow/pkg/credentials"
	"github.com/dukex/areaflow/pkg/executor"
	"github.com/dukex/areaflow/pkg/log"
	"github.com/dukex/areaflow/pkg/otelhelper"
	"github.com/dukex/areaflow/pkg/ratelimit"
	"github.com/dukex/areaflow/pkg/scheduler"
	"github.com/dukex/areaflow/pkg/variables"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	command := &cli.Command{
		Name:                  "areaflow-scheduler",
		EnableShellCompletion: true,
		Usage:                 "Start the polling schedulers that run automations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (postgres:// or a file path)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for seen-state; in-memory LRU when empty",
				Value:   "",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.IntFlag{
				Name:    "seen-capacity",
				Usage:   "Capacity of the in-memory seen-state LRU",
				Value:   100000,
				Sources: cli.EnvVars("SEEN_CAPACITY"),
			},
			&cli.StringFlag{
				Name:     "plugins-path",
				Usage:    "Path to the directory containing reaction and connector plugins",
				Value:    "./plugins",
				Required: false,
				Sources:  cli.EnvVars("PLUGINS_PATH"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Optional cron expression overriding connector poll intervals",
				Value:   "",
				Sources: cli.EnvVars("POLL_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP traces for runs and ticks",
				Value:   false,
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: run,
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("areaflow-scheduler")
	logger.InfoContext(ctx, "Initializing scheduler")

	persistence := cmd.NewPersistence(ctx, logger, command.String("database-url"))
	defer func() {
		err := persistence.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	registry := cmd.NewRegistry(ctx, logger, command.String("plugins-path"))

	eventBus := cmd.NewEventBus(logger)
	defer func() {
		err := eventBus.Close()
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	var tracer trace.Tracer

	if command.Bool("tracing") {
		t, err := otelhelper.NewTracer(ctx, "areaflow-scheduler")
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize tracer, continuing without", "error", err)
		} else {
			tracer = t
		}
	}

	exec := executor.NewExecutor(
		logger,
		registry,
		variables.NewResolver(logger),
		persistence.ExecutionLogRepository(),
		eventBus,
		tracer,
	)

	credentialStore := credentials.NewStore(persistence.CredentialRepository(), nil)

	connectors, err := cmd.LoadConnectors(logger, command.String("plugins-path"), persistence.AutomationRepository())
	if err != nil {
		return err
	}

	manager := scheduler.NewManager(logger)

	for _, connector := range connectors {
		s, err := scheduler.NewScheduler(scheduler.Config{
			Connector:   connector,
			Credentials: credentialStore,
			Executor:    exec,
			Seen:        cmd.NewSeenStore(command.String("redis-url"), command.Int("seen-capacity")),
			Limiter:     ratelimit.NewLimiter(logger),
			Schedule:    command.String("schedule"),
			Logger:      logger,
		})
		if err != nil {
			return err
		}

		manager.Add(s)
	}

	return manager.Run(ctx)
}
