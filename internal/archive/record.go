// Package archive persists finished games. The live session is in-memory
// only; a record is written once, when a game reaches a terminal state.
package archive

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound means no archived game exists under the requested ID.
var ErrNotFound = errors.New("archived game not found")

// Record is one finished game.
type Record struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	White     string    `json:"white"`
	Black     string    `json:"black"`
	Result    string    `json:"result"` // "white", "black", "draw"
	Method    string    `json:"method"` // checkmate, stalemate, resignation...
	StartFEN  string    `json:"start_fen,omitempty"`
	MovesUCI  []string  `json:"moves_uci"`
	MovesSAN  []string  `json:"moves_san"`
	PGN       string    `json:"pgn"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Store archives finished games and lists recent ones, newest first.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Recent(ctx context.Context, limit int) ([]*Record, error)
	Close() error
}
