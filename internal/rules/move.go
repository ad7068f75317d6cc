package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// Square is a board coordinate in file-rank form, "a1" through "h8".
type Square string

var ErrInvalidSquare = errors.New("invalid square")

func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return "", fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return Square(s), nil
}

func (s Square) File() byte { return s[0] }
func (s Square) Rank() byte { return s[1] }

// Promotion is the piece a pawn promotes to, as a UCI letter, or 0 for none.
type Promotion byte

const (
	NoPromotion Promotion = 0
	PromoQueen  Promotion = 'q'
	PromoRook   Promotion = 'r'
	PromoBishop Promotion = 'b'
	PromoKnight Promotion = 'n'
)

// Move is a fully specified move in coordinate form. Two moves are equal only
// when origin, destination, and promotion all match.
type Move struct {
	From      Square
	To        Square
	Promotion Promotion
}

var ErrInvalidMove = errors.New("invalid move text")

// ParseUCIMove parses coordinate notation such as "e2e4" or "e7e8q".
func ParseUCIMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, err := ParseSquare(s[:2])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		switch Promotion(s[4]) {
		case PromoQueen, PromoRook, PromoBishop, PromoKnight:
			m.Promotion = Promotion(s[4])
		default:
			return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
		}
	}
	return m, nil
}

// UCI renders the move in coordinate notation.
func (m Move) UCI() string {
	if m.Promotion == NoPromotion {
		return string(m.From) + string(m.To)
	}
	return string(m.From) + string(m.To) + string(m.Promotion)
}

func (m Move) String() string { return m.UCI() }
