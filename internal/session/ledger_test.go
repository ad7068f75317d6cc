package session

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/park285/chess-lab/internal/rules"
)

func TestScoreTablePairsMoves(t *testing.T) {
	o := humanVsHuman(t)

	if rows := o.ScoreTable(); len(rows) != 0 {
		t.Fatalf("fresh game should have an empty table, got %d rows", len(rows))
	}

	mustSubmit(t, o, "e2e4")
	rows := o.ScoreTable()
	if len(rows) != 1 || rows[0].Number != 1 || rows[0].White != "e4" || rows[0].Black != "" {
		t.Fatalf("half-move row wrong: %+v", rows)
	}

	mustSubmit(t, o, "e7e5")
	mustSubmit(t, o, "g1f3")
	rows = o.ScoreTable()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Black != "e5" || rows[1].Number != 2 || rows[1].White != "Nf3" || rows[1].Black != "" {
		t.Fatalf("rows wrong: %+v", rows)
	}
}

func TestScoreTableBlackToMoveStart(t *testing.T) {
	// Position after 1. e4, imported with Black to move.
	const fen = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	o, err := New(Config{White: SourceHuman, Black: SourceHuman, StartFEN: fen}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mustSubmit(t, o, "e7e5")
	rows := o.ScoreTable()
	if len(rows) != 1 || rows[0].Number != 1 || rows[0].White != "" || rows[0].Black != "e5" {
		t.Fatalf("black's move must open a white-less row: %+v", rows)
	}

	mustSubmit(t, o, "g1f3")
	rows = o.ScoreTable()
	if len(rows) != 2 || rows[1].Number != 2 || rows[1].White != "Nf3" || rows[1].Black != "" {
		t.Fatalf("white's reply must start move 2: %+v", rows)
	}

	pgn := o.PGN(GameMeta{})
	if !strings.Contains(pgn, "1... e5 2. Nf3") {
		t.Fatalf("movetext must open with a black continuation:\n%s", pgn)
	}
}

func TestScoreTableHonorsStartNumber(t *testing.T) {
	const fen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 7"
	o, err := New(Config{White: SourceHuman, Black: SourceHuman, StartFEN: fen}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	mustSubmit(t, o, "e2e4")
	rows := o.ScoreTable()
	if len(rows) != 1 || rows[0].Number != 7 || rows[0].White != "e4" {
		t.Fatalf("numbering must continue from the imported counter: %+v", rows)
	}
	if pgn := o.PGN(GameMeta{}); !strings.Contains(pgn, "7. e4") {
		t.Fatalf("movetext must continue from the imported counter:\n%s", pgn)
	}
}

func TestProjectionsIdempotent(t *testing.T) {
	o := humanVsHuman(t)
	mustSubmit(t, o, "e2e4")
	mustSubmit(t, o, "e7e5")
	mustSubmit(t, o, "g1f3")

	meta := GameMeta{White: "alice", Black: "bob", Date: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)}
	if first, second := o.PGN(meta), o.PGN(meta); first != second {
		t.Fatalf("repeated export diverged:\n%s\n---\n%s", first, second)
	}
	if first, second := o.ScoreTable(), o.ScoreTable(); !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated score table diverged: %+v vs %+v", first, second)
	}
}

func TestPGNRoundTripReplay(t *testing.T) {
	o := humanVsHuman(t)
	for _, uci := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"} {
		mustSubmit(t, o, uci)
	}
	exported := o.PGN(GameMeta{White: "alice", Black: "bob"})

	moves, err := rules.ParseGameText(exported)
	if err != nil {
		t.Fatalf("ParseGameText: %v", err)
	}

	replayed := humanVsHuman(t)
	for _, mv := range moves {
		if _, err := replayed.SubmitMove(mv); err != nil {
			t.Fatalf("replay %s: %v", mv.UCI(), err)
		}
	}

	orig, again := o.Snapshot(), replayed.Snapshot()
	if !reflect.DeepEqual(orig.MovesUCI(), again.MovesUCI()) {
		t.Fatalf("move list changed across round trip: %v vs %v", orig.MovesUCI(), again.MovesUCI())
	}
	if orig.FEN != again.FEN {
		t.Fatalf("final position changed across round trip: %q vs %q", orig.FEN, again.FEN)
	}
}

func TestLedgerRecordsAreImmutableCopies(t *testing.T) {
	o := humanVsHuman(t)
	mustSubmit(t, o, "e2e4")

	recs := o.Snapshot().Records
	recs[0].SAN = "tampered"

	if o.Snapshot().Records[0].SAN != "e4" {
		t.Fatalf("snapshot exposed internal ledger storage")
	}
}

func TestPGNTagSanitization(t *testing.T) {
	o := humanVsHuman(t)
	mustSubmit(t, o, "e2e4")

	pgn := o.PGN(GameMeta{White: `eve "the" escaper`})
	if want := `[White "eve 'the' escaper"]`; !strings.Contains(pgn, want) {
		t.Fatalf("tag not sanitized:\n%s", pgn)
	}
	if !strings.Contains(pgn, `[Result "*"]`) {
		t.Fatalf("running game must export result *:\n%s", pgn)
	}
}
