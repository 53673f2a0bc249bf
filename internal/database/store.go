// Package database archives finished rounds and the action log. The archive is write
// mostly: nothing in it is used to restore an in-flight game.
package database

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// RoundRecord is the outcome of one scored round.
type RoundRecord struct {
	GameID uuid.UUID
	Code   string
	Round  int
	Winner string
	Points int
	// Scores are cumulative after this round.
	Scores map[string]int
	// Finished marks the round that ended the match.
	Finished bool
	EndedAt  time.Time
}

// Store is implemented by the Postgres and SQLite archives.
type Store interface {
	RecordRound(ctx context.Context, rec RoundRecord) error
	RecordActions(ctx context.Context, recs []cache.ActionRecord) error
	RoundsForGame(ctx context.Context, gameID uuid.UUID) ([]RoundRecord, error)
	Close() error
}

// Open returns the archive selected by cfg.Driver, or nil when the archive is disabled.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case "postgres":
		pg, err := OpenPostgres(ctx, cfg.DSN())
		if err != nil {
			return nil, err
		}
		return pg, nil
	case "sqlite":
		lite, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return lite, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func schema(name string) (string, error) {
	b, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return "", fmt.Errorf("read schema %s: %w", name, err)
	}
	return string(b), nil
}

func gameStatus(finished bool) string {
	if finished {
		return "completed"
	}
	return "in_progress"
}

// markFinished flags the last round of a completed game.
func markFinished(rounds []RoundRecord, status string) {
	if status == "completed" && len(rounds) > 0 {
		rounds[len(rounds)-1].Finished = true
	}
}
