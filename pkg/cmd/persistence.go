// Package cmd wires shared infrastructure for the flowork binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/floworkhq/flowork/pkg/persistence"
	"github.com/floworkhq/flowork/pkg/persistence/file"
	"github.com/floworkhq/flowork/pkg/persistence/postgresql"
	"github.com/floworkhq/flowork/pkg/persistence/redis"
)

// NewPersistence selects a persistence implementation from the database URL
// scheme. Anything without a recognized scheme is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	case "redis":
		return redis.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres"
	case "redis", "rediss":
		return "redis"
	default:
		return "file"
	}
}
