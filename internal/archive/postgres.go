package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore archives finished games in a lab_games table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	const q = `CREATE TABLE IF NOT EXISTS lab_games (
        id          TEXT PRIMARY KEY,
        session_id  TEXT NOT NULL,
        white       TEXT NOT NULL,
        black       TEXT NOT NULL,
        result      TEXT NOT NULL,
        result_method TEXT NOT NULL,
        start_fen   TEXT NOT NULL DEFAULT '',
        moves_uci   TEXT NOT NULL,
        moves_san   TEXT NOT NULL,
        pgn         TEXT NOT NULL,
        started_at  TIMESTAMPTZ NOT NULL,
        ended_at    TIMESTAMPTZ NOT NULL
    )`
	_, err := db.Exec(q)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	if s == nil || s.db == nil || rec == nil {
		return nil
	}
	movesUCIRaw, _ := json.Marshal(rec.MovesUCI)
	movesSANRaw, _ := json.Marshal(rec.MovesSAN)

	const q = `INSERT INTO lab_games (
        id, session_id, white, black,
        result, result_method, start_fen, moves_uci, moves_san, pgn,
        started_at, ended_at
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
      ) ON CONFLICT (id) DO UPDATE SET
        session_id=EXCLUDED.session_id,
        white=EXCLUDED.white,
        black=EXCLUDED.black,
        result=EXCLUDED.result,
        result_method=EXCLUDED.result_method,
        start_fen=EXCLUDED.start_fen,
        moves_uci=EXCLUDED.moves_uci,
        moves_san=EXCLUDED.moves_san,
        pgn=EXCLUDED.pgn,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at`

	_, err := s.db.ExecContext(ctx, q,
		rec.ID, rec.SessionID, rec.White, rec.Black,
		rec.Result, rec.Method, rec.StartFEN,
		string(movesUCIRaw), string(movesSANRaw), rec.PGN,
		rec.StartedAt, rec.EndedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	const q = `SELECT id, session_id, white, black, result, result_method,
        start_fen, moves_uci, moves_san, pgn, started_at, ended_at
        FROM lab_games WHERE id = $1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	const q = `SELECT id, session_id, white, black, result, result_method,
        start_fen, moves_uci, moves_san, pgn, started_at, ended_at
        FROM lab_games ORDER BY ended_at DESC LIMIT $1`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var movesUCIRaw, movesSANRaw string
	err := row.Scan(
		&rec.ID, &rec.SessionID, &rec.White, &rec.Black,
		&rec.Result, &rec.Method, &rec.StartFEN,
		&movesUCIRaw, &movesSANRaw, &rec.PGN,
		&rec.StartedAt, &rec.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(movesUCIRaw), &rec.MovesUCI)
	_ = json.Unmarshal([]byte(movesSANRaw), &rec.MovesSAN)
	return &rec, nil
}
