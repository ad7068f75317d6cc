package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chess-lab/internal/rules"
)

const defaultEngineBudget = 2 * time.Second

// Orchestrator is the single authority for board mutation. It owns the
// current position and the move ledger; everything else reads snapshots.
// All state transitions run under one mutex, and provider calls never hold
// it: each request snapshots the position and generation, waits outside the
// lock, then re-validates before applying.
type Orchestrator struct {
	mu sync.Mutex

	id     string
	cfg    Config
	pos    *rules.Position
	ledger *Ledger
	sel    *Selector

	providers map[SourceKind]MoveProvider

	// generation advances on every accepted move and every reset; provider
	// results requested under an older generation are discarded.
	gen uint64

	startedAt time.Time
	updatedAt time.Time

	logger *zap.Logger
}

func New(cfg Config, providers map[SourceKind]MoveProvider, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		providers: providers,
		logger:    logger,
	}
	if err := o.Reset(cfg); err != nil {
		return nil, err
	}
	return o, nil
}

// Reset replaces the whole session: position (standard or imported FEN),
// ledger, selection, and slot bindings. On an invalid imported position the
// previous session state is retained untouched.
func (o *Orchestrator) Reset(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	pos := rules.StartingPosition()
	if cfg.StartFEN != "" {
		parsed, err := rules.ParsePosition(cfg.StartFEN)
		if err != nil {
			return err
		}
		pos = parsed
	}
	if cfg.EngineBudget <= 0 {
		cfg.EngineBudget = defaultEngineBudget
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	o.id = uuid.NewString()
	o.cfg = cfg
	o.pos = pos
	o.ledger = NewLedger(cfg.StartFEN)
	o.gen++
	o.startedAt = now
	o.updatedAt = now
	o.clearSelectionLocked()
	o.logger.Info("session reset",
		zap.String("session_id", o.id),
		zap.String("white", string(cfg.White)),
		zap.String("black", string(cfg.Black)),
		zap.Bool("imported_position", cfg.StartFEN != ""),
	)
	return nil
}

// CurrentTurn is derived from the position's side to move.
func (o *Orchestrator) CurrentTurn() rules.Color {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos.Turn()
}

// SourceForTurn reports which source must supply the next move.
func (o *Orchestrator) SourceForTurn() SourceKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg.source(o.pos.Turn())
}

// IsTerminal reports whether the game has ended, and how.
func (o *Orchestrator) IsTerminal() (bool, *rules.Terminal) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := o.pos.Terminal()
	return t != nil, t
}

// SubmitMove validates the candidate against the legal-move set and, on
// acceptance, replaces the position with its oracle-computed successor and
// appends a ledger record. On rejection nothing changes except the selection
// state, which is cleared either way.
func (o *Orchestrator) SubmitMove(m rules.Move) (*MoveRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applyLocked(m)
}

// RequestAutomatedMove asks the configured provider for the side to move and
// submits the result through the normal validation path. The orchestrator
// lock is not held across the provider call; a result arriving after a reset
// or another accepted move is discarded as stale, leaving the same side to
// move.
func (o *Orchestrator) RequestAutomatedMove(ctx context.Context) (*MoveRecord, error) {
	o.mu.Lock()
	if o.pos.Terminal() != nil {
		o.mu.Unlock()
		return nil, ErrGameOver
	}
	src := o.cfg.source(o.pos.Turn())
	if src == SourceHuman {
		o.mu.Unlock()
		return nil, ErrHumanTurn
	}
	provider := o.providers[src]
	if provider == nil {
		o.mu.Unlock()
		o.logger.Warn("no provider configured", zap.String("source", string(src)))
		return nil, ErrProviderUnavailable
	}
	legal := o.pos.LegalMoves()
	legalUCI := make([]string, len(legal))
	for i, mv := range legal {
		legalUCI[i] = mv.UCI()
	}
	req := ProviderRequest{
		FEN:      o.pos.FEN(),
		StartFEN: o.ledger.startFEN,
		MovesUCI: o.ledger.uciMoves(),
		MovesSAN: o.ledger.sanMoves(),
		LegalUCI: legalUCI,
		Budget:   o.cfg.EngineBudget,
	}
	gen := o.gen
	sessionID := o.id
	o.mu.Unlock()

	mv, err := provider.ProposeMove(ctx, req)
	if err != nil {
		o.logger.Warn("automated move failed",
			zap.String("session_id", sessionID),
			zap.String("source", string(src)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s move: %w", src, err)
	}
	return o.submitAt(gen, mv)
}

// submitAt applies a provider result only if the generation it was requested
// under is still current.
func (o *Orchestrator) submitAt(gen uint64, m rules.Move) (*MoveRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		o.logger.Info("discarding stale provider result",
			zap.String("session_id", o.id),
			zap.Uint64("requested_gen", gen),
			zap.Uint64("current_gen", o.gen),
			zap.String("move", m.UCI()),
		)
		return nil, ErrStaleResult
	}
	return o.applyLocked(m)
}

func (o *Orchestrator) applyLocked(m rules.Move) (*MoveRecord, error) {
	defer o.clearSelectionLocked()

	if o.pos.Terminal() != nil {
		return nil, ErrGameOver
	}
	if !o.pos.IsLegal(m) {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
	}
	san, err := o.pos.SAN(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
	}
	next, err := o.pos.Apply(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, m.UCI())
	}

	rec := MoveRecord{
		Ordinal: o.ledger.Len(),
		Slot:    o.pos.Turn(),
		Move:    m,
		SAN:     san,
		FEN:     next.FEN(),
	}
	o.pos = next
	o.ledger.add(rec)
	o.gen++
	o.updatedAt = time.Now()

	o.logger.Info("move applied",
		zap.String("session_id", o.id),
		zap.Int("ordinal", rec.Ordinal),
		zap.String("slot", string(rec.Slot)),
		zap.String("uci", rec.Move.UCI()),
		zap.String("san", rec.SAN),
	)
	return &rec, nil
}

// Snapshot returns a consistent copy of the session for display, export, or
// advisory grounding.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return State{
		SessionID:  o.id,
		FEN:        o.pos.FEN(),
		StartFEN:   o.ledger.startFEN,
		Turn:       o.pos.Turn(),
		Source:     o.cfg.source(o.pos.Turn()),
		Terminal:   o.pos.Terminal(),
		Records:    o.ledger.Records(),
		Generation: o.gen,
		StartedAt:  o.startedAt,
		UpdatedAt:  o.updatedAt,
	}
}

// ScoreTable projects the ledger into scoresheet rows.
func (o *Orchestrator) ScoreTable() []ScoreRow {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ledger.ScoreTable()
}

// PGN exports the recorded game, deriving the result token from the current
// terminal status.
func (o *Orchestrator) PGN(meta GameMeta) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ledger.PGN(meta, resultToken(o.pos.Terminal()))
}

func resultToken(t *rules.Terminal) string {
	if t == nil {
		return "*"
	}
	switch t.Outcome {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	default:
		return "1/2-1/2"
	}
}

// board reads used by the selection machine

func (o *Orchestrator) ownPieceAt(sq rules.Square) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos.OwnPieceAt(sq)
}

func (o *Orchestrator) promotionRequired(origin, dest rules.Square) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.pos.PawnAt(origin) {
		return false
	}
	if o.pos.Turn() == rules.White {
		return dest.Rank() == '8'
	}
	return dest.Rank() == '1'
}

func (o *Orchestrator) attachSelector(s *Selector) {
	o.mu.Lock()
	o.sel = s
	o.mu.Unlock()
}

// clearSelectionLocked resets the attached selection machine. Called on every
// accepted move, every rejection, and every reset.
func (o *Orchestrator) clearSelectionLocked() {
	if o.sel != nil {
		o.sel.clear()
	}
}
