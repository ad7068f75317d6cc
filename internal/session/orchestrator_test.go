package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/park285/chess-lab/internal/rules"
)

type providerFunc func(ctx context.Context, req ProviderRequest) (rules.Move, error)

func (f providerFunc) ProposeMove(ctx context.Context, req ProviderRequest) (rules.Move, error) {
	return f(ctx, req)
}

func scriptedProvider(t *testing.T, moves ...string) providerFunc {
	t.Helper()
	i := 0
	return func(_ context.Context, _ ProviderRequest) (rules.Move, error) {
		if i >= len(moves) {
			return rules.Move{}, errors.New("script exhausted")
		}
		mv, err := rules.ParseUCIMove(moves[i])
		if err != nil {
			t.Fatalf("bad scripted move %q: %v", moves[i], err)
		}
		i++
		return mv, nil
	}
}

func humanVsHuman(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(Config{White: SourceHuman, Black: SourceHuman}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func mustSubmit(t *testing.T, o *Orchestrator, uci string) *MoveRecord {
	t.Helper()
	mv, err := rules.ParseUCIMove(uci)
	if err != nil {
		t.Fatalf("parse %s: %v", uci, err)
	}
	rec, err := o.SubmitMove(mv)
	if err != nil {
		t.Fatalf("SubmitMove %s: %v", uci, err)
	}
	return rec
}

func TestSubmitMove(t *testing.T) {
	o := humanVsHuman(t)

	rec := mustSubmit(t, o, "e2e4")
	if rec.Ordinal != 0 || rec.Slot != rules.White || rec.SAN != "e4" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if o.CurrentTurn() != rules.Black {
		t.Fatalf("expected black to move")
	}

	// same move again is now illegal and must not change anything
	mv, _ := rules.ParseUCIMove("e2e4")
	if _, err := o.SubmitMove(mv); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	st := o.Snapshot()
	if len(st.Records) != 1 || o.CurrentTurn() != rules.Black {
		t.Fatalf("rejected move mutated state: records=%d", len(st.Records))
	}
}

func TestPromotionRequiresExplicitPiece(t *testing.T) {
	// white pawn on e7 ready to promote
	o, err := New(Config{
		White:    SourceHuman,
		Black:    SourceHuman,
		StartFEN: "8/4P2k/8/8/8/8/8/4K3 w - - 0 1",
	}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bare, _ := rules.ParseUCIMove("e7e8")
	if _, err := o.SubmitMove(bare); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("bare promotion move should be rejected, got %v", err)
	}

	rec := mustSubmit(t, o, "e7e8q")
	if !strings.HasPrefix(rec.SAN, "e8=Q") {
		t.Fatalf("unexpected promotion SAN: %q", rec.SAN)
	}
}

func TestAutomatedMove(t *testing.T) {
	o, err := New(Config{White: SourceHuman, Black: SourceEngine},
		map[SourceKind]MoveProvider{SourceEngine: scriptedProvider(t, "e7e5")}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// engine must not move while the human is on turn
	if _, err := o.RequestAutomatedMove(context.Background()); !errors.Is(err, ErrHumanTurn) {
		t.Fatalf("expected ErrHumanTurn, got %v", err)
	}

	mustSubmit(t, o, "e2e4")
	rec, err := o.RequestAutomatedMove(context.Background())
	if err != nil {
		t.Fatalf("RequestAutomatedMove: %v", err)
	}
	if rec.Move.UCI() != "e7e5" || rec.Slot != rules.Black {
		t.Fatalf("unexpected automated move: %+v", rec)
	}
}

func TestAutomatedMoveProviderFailure(t *testing.T) {
	boom := errors.New("engine crashed")
	failing := providerFunc(func(_ context.Context, _ ProviderRequest) (rules.Move, error) {
		return rules.Move{}, boom
	})
	o, err := New(Config{White: SourceEngine, Black: SourceHuman},
		map[SourceKind]MoveProvider{SourceEngine: failing}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := o.RequestAutomatedMove(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	// board untouched, same side still to move
	st := o.Snapshot()
	if len(st.Records) != 0 || st.Turn != rules.White || st.Source != SourceEngine {
		t.Fatalf("failed turn mutated state: %+v", st)
	}
}

func TestAutomatedMoveNoProvider(t *testing.T) {
	o, err := New(Config{White: SourceEngine, Black: SourceHuman}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := o.RequestAutomatedMove(context.Background()); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestStaleProviderResultDiscarded(t *testing.T) {
	var o *Orchestrator
	cfg := Config{White: SourceEngine, Black: SourceHuman}

	// the provider resets the session mid-request, so its answer must be
	// discarded rather than applied to the new game
	sneaky := providerFunc(func(_ context.Context, _ ProviderRequest) (rules.Move, error) {
		if err := o.Reset(cfg); err != nil {
			t.Fatalf("reset during request: %v", err)
		}
		return rules.ParseUCIMove("e2e4")
	})

	var err error
	o, err = New(cfg, map[SourceKind]MoveProvider{SourceEngine: sneaky}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := o.RequestAutomatedMove(context.Background()); !errors.Is(err, ErrStaleResult) {
		t.Fatalf("expected ErrStaleResult, got %v", err)
	}
	if st := o.Snapshot(); len(st.Records) != 0 {
		t.Fatalf("stale result was applied: %d records", len(st.Records))
	}
}

func TestGameOver(t *testing.T) {
	o := humanVsHuman(t)
	for _, u := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		mustSubmit(t, o, u)
	}

	done, term := o.IsTerminal()
	if !done || term.Outcome != "black" || term.Method != "checkmate" {
		t.Fatalf("unexpected terminal: done=%v term=%+v", done, term)
	}

	mv, _ := rules.ParseUCIMove("a2a3")
	if _, err := o.SubmitMove(mv); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	if _, err := o.RequestAutomatedMove(context.Background()); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver from automation, got %v", err)
	}
}

func TestResetInvalidPositionKeepsSession(t *testing.T) {
	o := humanVsHuman(t)
	mustSubmit(t, o, "e2e4")
	before := o.Snapshot()

	err := o.Reset(Config{White: SourceHuman, Black: SourceHuman, StartFEN: "garbage"})
	if !errors.Is(err, rules.ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}

	after := o.Snapshot()
	if after.SessionID != before.SessionID || len(after.Records) != 1 {
		t.Fatalf("failed reset replaced session state")
	}
}

func TestResetStartsFreshSession(t *testing.T) {
	o := humanVsHuman(t)
	mustSubmit(t, o, "e2e4")
	before := o.Snapshot()

	if err := o.Reset(Config{White: SourceHuman, Black: SourceEngine}); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	after := o.Snapshot()
	if after.SessionID == before.SessionID {
		t.Fatalf("expected a new session identity")
	}
	if len(after.Records) != 0 || after.Turn != rules.White {
		t.Fatalf("reset did not restore the initial position: %+v", after)
	}
	if after.Generation <= before.Generation {
		t.Fatalf("generation must advance on reset")
	}
}

func TestPGNExport(t *testing.T) {
	o := humanVsHuman(t)
	for _, u := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		mustSubmit(t, o, u)
	}

	pgn := o.PGN(GameMeta{White: "alice", Black: "bob", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	for _, want := range []string{
		`[White "alice"]`,
		`[Black "bob"]`,
		`[Date "2026.03.01"]`,
		`[Result "0-1"]`,
		"1. f3 e5 2. g4 Qh4#",
	} {
		if !strings.Contains(pgn, want) {
			t.Fatalf("PGN missing %q:\n%s", want, pgn)
		}
	}
	if strings.Contains(pgn, "SetUp") {
		t.Fatalf("standard start must not carry SetUp/FEN tags")
	}
}

func TestPGNExportCustomStart(t *testing.T) {
	const fen = "8/4P2k/8/8/8/8/8/4K3 w - - 0 1"
	o, err := New(Config{White: SourceHuman, Black: SourceHuman, StartFEN: fen}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pgn := o.PGN(GameMeta{})
	if !strings.Contains(pgn, `[SetUp "1"]`) || !strings.Contains(pgn, `[FEN "`+fen+`"]`) {
		t.Fatalf("custom start must carry SetUp and FEN tags:\n%s", pgn)
	}
}

func TestProviderRequestContents(t *testing.T) {
	var got ProviderRequest
	capture := providerFunc(func(_ context.Context, req ProviderRequest) (rules.Move, error) {
		got = req
		return rules.ParseUCIMove("e7e5")
	})
	o, err := New(Config{White: SourceHuman, Black: SourceEngine, EngineBudget: 750 * time.Millisecond},
		map[SourceKind]MoveProvider{SourceEngine: capture}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mustSubmit(t, o, "e2e4")
	if _, err := o.RequestAutomatedMove(context.Background()); err != nil {
		t.Fatalf("RequestAutomatedMove: %v", err)
	}

	if got.Budget != 750*time.Millisecond {
		t.Fatalf("budget not forwarded: %v", got.Budget)
	}
	if len(got.MovesUCI) != 1 || got.MovesUCI[0] != "e2e4" || got.MovesSAN[0] != "e4" {
		t.Fatalf("history not forwarded: %+v", got)
	}
	if len(got.LegalUCI) != 20 {
		t.Fatalf("expected 20 legal replies after e4, got %d", len(got.LegalUCI))
	}
	if !strings.Contains(got.FEN, " b ") {
		t.Fatalf("request FEN should have black to move: %q", got.FEN)
	}
}
