package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `CREATE TABLE IF NOT EXISTS match_games (
    game_id       TEXT PRIMARY KEY,
    white_name    TEXT NOT NULL,
    black_name    TEXT NOT NULL,
    result        TEXT NOT NULL,
    result_method TEXT NOT NULL,
    start_fen     TEXT NOT NULL DEFAULT '',
    moves_uci     JSONB NOT NULL,
    moves_san     JSONB NOT NULL,
    pgn           TEXT NOT NULL,
    started_at    TIMESTAMPTZ,
    ended_at      TIMESTAMPTZ NOT NULL,
    duration_ms   BIGINT NOT NULL DEFAULT 0
)`

// Repository stores finished games in PostgreSQL.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewRepositoryFromDB wraps an already opened handle.
func NewRepositoryFromDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// EnsureSchema creates the results table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// SaveResult upserts a finished game.
func (r *Repository) SaveResult(ctx context.Context, res Result) error {
	if r == nil || r.db == nil {
		return nil
	}
	// on a replay error SAN holds the prefix that did replay; moves_uci stays complete
	san, _ := SAN(res.StartFEN, res.MovesUCI)
	pgn := PGN(res, san)

	movesUCIRaw, _ := json.Marshal(nonNil(res.MovesUCI))
	movesSANRaw, _ := json.Marshal(nonNil(san))
	var started any
	if !res.Started.IsZero() {
		started = res.Started
	}
	duration := int64(0)
	if !res.Started.IsZero() {
		duration = res.Ended.Sub(res.Started).Milliseconds()
		if duration < 0 {
			duration = 0
		}
	}

	q := `INSERT INTO match_games (
        game_id, white_name, black_name, result, result_method,
        start_fen, moves_uci, moves_san, pgn, started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
      ON CONFLICT (game_id) DO UPDATE SET
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		res.ID, res.White, res.Black, res.Winner, res.Method,
		res.StartFEN, string(movesUCIRaw), string(movesSANRaw), pgn,
		started, res.Ended, duration,
	)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
