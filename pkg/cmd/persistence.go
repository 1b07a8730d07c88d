// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/areaflow/pkg/persistence"
	"github.com/dukex/areaflow/pkg/persistence/file"
	"github.com/dukex/areaflow/pkg/persistence/postgresql"
)

// NewPersistence picks the persistence backend from the database URL scheme:
// "postgres://" or "postgresql://" for PostgreSQL, anything else is treated
// as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if found && (scheme == "postgres" || scheme == "postgresql") {
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	}

	return file.NewPersistence(databaseURL)
}
