package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess-lab/internal/rules"
)

var (
	ErrIllegalMove         = errors.New("illegal move")
	ErrGameOver            = errors.New("game over")
	ErrHumanTurn           = errors.New("side to move is human-controlled")
	ErrProviderUnavailable = errors.New("move provider unavailable")
	ErrStaleResult         = errors.New("stale provider result discarded")
)

// SourceKind names who supplies moves for a player slot.
type SourceKind string

const (
	SourceHuman   SourceKind = "human"
	SourceEngine  SourceKind = "engine"
	SourceAdvisor SourceKind = "advisor"
)

func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(strings.ToLower(strings.TrimSpace(s))) {
	case SourceHuman:
		return SourceHuman, nil
	case SourceEngine:
		return SourceEngine, nil
	case SourceAdvisor:
		return SourceAdvisor, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// Config binds each player slot to a move source for one session. StartFEN
// optionally replaces the standard initial position and must pass rules
// validation.
type Config struct {
	White        SourceKind
	Black        SourceKind
	StartFEN     string
	EngineBudget time.Duration
}

func (c Config) source(color rules.Color) SourceKind {
	if color == rules.White {
		return c.White
	}
	return c.Black
}

func (c Config) validate() error {
	for _, src := range []SourceKind{c.White, c.Black} {
		switch src {
		case SourceHuman, SourceEngine, SourceAdvisor:
		default:
			return fmt.Errorf("unknown source kind %q", src)
		}
	}
	return nil
}

// MoveRecord is one applied move. Records are created only by the
// orchestrator at the moment a move is accepted and never change afterwards.
type MoveRecord struct {
	Ordinal int
	Slot    rules.Color
	Move    rules.Move
	SAN     string
	FEN     string // position after the move
}

// ProviderRequest carries everything a move provider may need: the position,
// how it was reached, and the caller's time budget.
type ProviderRequest struct {
	FEN      string
	StartFEN string // "" for the standard initial position
	MovesUCI []string
	MovesSAN []string
	LegalUCI []string
	Budget   time.Duration
}

// MoveProvider is an automated move source: a search engine or an advisor.
type MoveProvider interface {
	ProposeMove(ctx context.Context, req ProviderRequest) (rules.Move, error)
}

// State is a read-only snapshot of a session, safe to hand to presentation
// or advisory code.
type State struct {
	SessionID  string
	FEN        string
	StartFEN   string
	Turn       rules.Color
	Source     SourceKind
	Terminal   *rules.Terminal
	Records    []MoveRecord
	Generation uint64
	StartedAt  time.Time
	UpdatedAt  time.Time
}

func (s State) MovesUCI() []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.Move.UCI()
	}
	return out
}

func (s State) MovesSAN() []string {
	out := make([]string, len(s.Records))
	for i, r := range s.Records {
		out[i] = r.SAN
	}
	return out
}
