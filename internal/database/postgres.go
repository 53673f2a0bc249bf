package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/uno/internal/cache"
)

// Postgres archives to a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings with a 5 second timeout and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	ddl, err := schema("postgres.sql")
	if err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// RecordRound upserts the game row and its round result in one transaction.
func (p *Postgres) RecordRound(ctx context.Context, rec RoundRecord) error {
	scores, err := json.Marshal(rec.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}
	err = pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		upsertGame := `
			INSERT INTO games (id, code, status)
			VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				code = EXCLUDED.code,
				status = CASE WHEN games.status = 'completed' THEN games.status ELSE EXCLUDED.status END,
				end_time = CASE WHEN EXCLUDED.status = 'completed'
					THEN COALESCE(games.end_time, NOW()) ELSE games.end_time END
		`
		if _, err := tx.Exec(ctx, upsertGame, rec.GameID, rec.Code, gameStatus(rec.Finished)); err != nil {
			return err
		}

		q := `
			INSERT INTO round_results (game_id, round, winner, points, scores, ended_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (game_id, round)
			DO UPDATE SET winner = $3, points = $4, scores = $5, ended_at = $6
		`
		_, err := tx.Exec(ctx, q, rec.GameID, rec.Round, rec.Winner, rec.Points, string(scores), rec.EndedAt.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("tx upsert round result: %w", err)
	}
	return nil
}

// RecordActions inserts a batch of action records. Records already archived are skipped.
func (p *Postgres) RecordActions(ctx context.Context, recs []cache.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			payload, err := json.Marshal(rec.ActionPayload)
			if err != nil {
				return err
			}
			upsertGame := `
				INSERT INTO games (id, status)
				VALUES ($1, 'in_progress')
				ON CONFLICT (id) DO NOTHING
			`
			if _, err := tx.Exec(ctx, upsertGame, rec.GameID); err != nil {
				return err
			}
			q := `
				INSERT INTO game_actions (game_id, action_index, actor, action_type, action_payload, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (game_id, action_index) DO NOTHING
			`
			if _, err := tx.Exec(ctx, q, rec.GameID, rec.ActionIndex, rec.Actor, rec.ActionType,
				string(payload), time.UnixMilli(rec.Timestamp).UTC()); err != nil {
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
func (p *Postgres) RoundsForGame(ctx context.Context, gameID uuid.UUID) ([]RoundRecord, error) {
	q := `
		SELECT r.round, r.winner, r.points, r.scores::text, r.ended_at, g.code, g.status
		FROM round_results r
		JOIN games g ON g.id = r.game_id
		WHERE r.game_id = $1
		ORDER BY r.round
	`
	rows, err := p.pool.Query(ctx, q, gameID)
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
		var scores string
		if err := rows.Scan(&rec.Round, &rec.Winner, &rec.Points, &scores, &rec.EndedAt, &rec.Code, &status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(scores), &rec.Scores); err != nil {
			return nil, fmt.Errorf("decode scores: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	markFinished(out, status)
	return out, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}
