package uci

import (
	"testing"
)

func TestBuildPositionCommand(t *testing.T) {
	cases := []struct {
		fen   string
		moves []string
		want  string
	}{
		{"", nil, "position startpos\n"},
		{"startpos", []string{"e2e4"}, "position startpos moves e2e4\n"},
		{"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", nil,
			"position fen rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1\n"},
		{"", []string{"e2e4", "e7e5"}, "position startpos moves e2e4 e7e5\n"},
	}
	for _, c := range cases {
		if got := BuildPositionCommand(c.fen, c.moves); got != c.want {
			t.Fatalf("BuildPositionCommand(%q, %v) = %q, want %q", c.fen, c.moves, got, c.want)
		}
	}
}

func TestParseBestMove(t *testing.T) {
	move, ok := ParseBestMove("bestmove e2e4 ponder e7e5")
	if !ok || move != "e2e4" {
		t.Fatalf("ParseBestMove = %q, %v", move, ok)
	}

	move, ok = ParseBestMove("bestmove a7a8q")
	if !ok || move != "a7a8q" {
		t.Fatalf("promotion bestmove = %q, %v", move, ok)
	}

	for _, line := range []string{"bestmove", "bestmove (none)", "bestmove 0000"} {
		if _, ok := ParseBestMove(line); ok {
			t.Fatalf("ParseBestMove(%q) should fail", line)
		}
	}
}

func TestParseScore(t *testing.T) {
	cp, ok := ParseScore("info depth 20 seldepth 28 score cp 35 nodes 1000000 pv e2e4")
	if !ok || cp != 35 {
		t.Fatalf("cp score = %d, %v", cp, ok)
	}

	cp, ok = ParseScore("info depth 12 score cp -240 pv d7d5")
	if !ok || cp != -240 {
		t.Fatalf("negative cp = %d, %v", cp, ok)
	}

	cp, ok = ParseScore("info depth 30 score mate 4 pv h5f7")
	if !ok || cp <= 10000 {
		t.Fatalf("mate score should clamp high, got %d, %v", cp, ok)
	}
	cp, ok = ParseScore("info depth 30 score mate -3")
	if !ok || cp >= -10000 {
		t.Fatalf("mated score should clamp low, got %d, %v", cp, ok)
	}

	if _, ok := ParseScore("info depth 20 nodes 123"); ok {
		t.Fatalf("line without score must not parse")
	}
}

func TestParseScoreIgnoresMalformed(t *testing.T) {
	if _, ok := ParseScore("info score cp banana"); ok {
		t.Fatalf("non-numeric score must not parse")
	}
}
