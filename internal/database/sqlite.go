package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	_ "modernc.org/sqlite"
)

// SQLite archives to a single database file.
type SQLite struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database at path, pings it and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	ddl, err := schema("sqlite.sql")
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if _, err := sqlDB.Exec(ddl); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{sqlDB: sqlDB}, nil
}

func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx rollback error: %v; original error: %w", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// RecordRound upserts the game row and its round result in one transaction.
func (s *SQLite) RecordRound(ctx context.Context, rec RoundRecord) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	now := time.Now().UTC().UnixMilli()
	status := gameStatus(rec.Finished)
	var endTime sql.NullInt64
	if rec.Finished {
		endTime = sql.NullInt64{Int64: now, Valid: true}
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO games (id, code, status, start_time, end_time)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				code = excluded.code,
				status = CASE WHEN games.status = 'completed' THEN games.status ELSE excluded.status END,
				end_time = COALESCE(games.end_time, excluded.end_time)`,
			rec.GameID.String(), rec.Code, status, now, endTime)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO round_results (game_id, round, winner, points, scores, ended_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (game_id, round) DO UPDATE SET
				winner = excluded.winner,
				points = excluded.points,
				scores = excluded.scores,
				ended_at = excluded.ended_at`,
			rec.GameID.String(), rec.Round, rec.Winner, rec.Points, string(scores), rec.EndedAt.UTC().UnixMilli())
		return err
	})
	if err != nil {
		return fmt.Errorf("tx upsert round result: %w", err)
	}
	return nil
}

// RecordActions inserts a batch of action records. Records already archived are skipped.
func (s *SQLite) RecordActions(ctx context.Context, recs []cache.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC().UnixMilli()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, rec := range recs {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO games (id, status, start_time) VALUES (?, 'in_progress', ?)
				ON CONFLICT (id) DO NOTHING`,
				rec.GameID.String(), now); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO game_actions (game_id, action_index, actor, action_type, action_payload, created_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (game_id, action_index) DO NOTHING`,
				rec.GameID.String(), rec.ActionIndex, rec.Actor, rec.ActionType, string(payload), rec.Timestamp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("tx insert actions: %w", err)
	}
	return nil
}

// RoundsForGame lists the archived rounds of a game in order.
func (s *SQLite) RoundsForGame(ctx context.Context, gameID uuid.UUID) ([]RoundRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT r.round, r.winner, r.points, r.scores, r.ended_at, g.code, g.status
		FROM round_results r
		JOIN games g ON g.id = r.game_id
		WHERE r.game_id = ?
		ORDER BY r.round`, gameID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out    []RoundRecord
		status string
	)
	for rows.Next() {
		rec := RoundRecord{GameID: gameID}
		var (
			scores  string
			endedAt int64
		)
		if err := rows.Scan(&rec.Round, &rec.Winner, &rec.Points, &scores, &endedAt, &rec.Code, &status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		rec.EndedAt = time.UnixMilli(endedAt).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	markFinished(out, status)
	return out, nil
}

// ActionCount returns how many actions are archived for a game.
func (s *SQLite) ActionCount(ctx context.Context, gameID uuid.UUID) (int, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM game_actions WHERE game_id = ?`, gameID.String()).Scan(&n)
	return n, err
}

// Close closes the SQLite handle.
func (s *SQLite) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}
