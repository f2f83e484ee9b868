// Package cmd provides shared initialization for the fieldflow binaries.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldflow/fieldflow/pkg/persistence"
	"github.com/fieldflow/fieldflow/pkg/persistence/file"
	"github.com/fieldflow/fieldflow/pkg/persistence/postgresql"
	"github.com/fieldflow/fieldflow/pkg/persistence/redis"
)

// NewPersistence selects the storage backend from the database URL scheme:
// postgres://, redis:// or file:// (also bare paths).
func NewPersistence(ctx context.Context, databaseURL string) (persistence.Persistence, error) {
	switch scheme(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, databaseURL)
	case "redis":
		return redis.NewPersistence(ctx, databaseURL)
	case "file", "":
		return file.NewPersistence(databaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported database URL %q", databaseURL)
	}
}

func scheme(databaseURL string) string {
	before, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return before
}
