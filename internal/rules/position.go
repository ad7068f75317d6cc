package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var ErrInvalidPosition = errors.New("invalid position")

// Position is a full game state snapshot: piece placement, side to move,
// castling and en passant rights, half/full move counters. Positions are
// never mutated; Apply returns a fresh one.
type Position struct {
	game *nchess.Game
}

func StartingPosition() *Position {
	return &Position{game: nchess.NewGame()}
}

// ParsePosition builds a position from a FEN string. The FEN must describe a
// state the rules engine accepts.
func ParsePosition(fen string) (*Position, error) {
	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return &Position{game: nchess.NewGame(opt)}, nil
}

// ParseGameText reads a PGN game record and returns its move sequence in
// coordinate form, so a session can be reseeded through the normal
// validation path.
func ParseGameText(text string) ([]Move, error) {
	opt, err := nchess.PGN(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	game := nchess.NewGame(opt)
	positions := game.Positions()
	uci := nchess.UCINotation{}
	moves := make([]Move, 0, len(game.Moves()))
	for i, mv := range game.Moves() {
		if i >= len(positions) {
			break
		}
		parsed, perr := ParseUCIMove(uci.Encode(positions[i], mv))
		if perr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, perr)
		}
		moves = append(moves, parsed)
	}
	return moves, nil
}

func (p *Position) FEN() string { return p.game.FEN() }

func (p *Position) Turn() Color {
	if p.game.Position().Turn() == nchess.White {
		return White
	}
	return Black
}

// LegalMoves returns every legal move in the position, in coordinate form.
func (p *Position) LegalMoves() []Move {
	valid := p.game.ValidMoves()
	uci := nchess.UCINotation{}
	pos := p.game.Position()
	out := make([]Move, 0, len(valid))
	for _, mv := range valid {
		m, err := ParseUCIMove(uci.Encode(pos, &mv))
		if err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}

// IsLegal reports whether the fully specified move is legal here. A move
// missing a required promotion piece is not legal.
func (p *Position) IsLegal(m Move) bool {
	target := m.UCI()
	uci := nchess.UCINotation{}
	pos := p.game.Position()
	for _, mv := range p.game.ValidMoves() {
		if uci.Encode(pos, &mv) == target {
			return true
		}
	}
	return false
}

// SAN renders the move in algebraic notation against this position. The move
// must be legal.
func (p *Position) SAN(m Move) (string, error) {
	mv, err := p.decode(m)
	if err != nil {
		return "", err
	}
	return nchess.AlgebraicNotation{}.Encode(p.game.Position(), mv), nil
}

// Apply returns the successor position after the move. The receiver is left
// untouched.
func (p *Position) Apply(m Move) (*Position, error) {
	clone := p.game.Clone()
	mv, err := nchess.UCINotation{}.Decode(clone.Position(), m.UCI())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMove, m.UCI())
	}
	if err := clone.Move(mv, nil); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMove, m.UCI())
	}
	return &Position{game: clone}, nil
}

// OwnPieceAt reports whether a piece of the side to move sits on sq.
func (p *Position) OwnPieceAt(sq Square) bool {
	piece := p.pieceAt(sq)
	if piece == nchess.NoPiece {
		return false
	}
	return piece.Color() == p.game.Position().Turn()
}

// PawnAt reports whether a pawn of the side to move sits on sq.
func (p *Position) PawnAt(sq Square) bool {
	piece := p.pieceAt(sq)
	if piece == nchess.NoPiece {
		return false
	}
	return piece.Color() == p.game.Position().Turn() && piece.Type() == nchess.Pawn
}

func (p *Position) pieceAt(sq Square) nchess.Piece {
	file := nchess.File(sq.File() - 'a')
	rank := nchess.Rank(sq.Rank() - '1')
	return p.game.Position().Board().Piece(nchess.NewSquare(file, rank))
}

func (p *Position) decode(m Move) (*nchess.Move, error) {
	mv, err := nchess.UCINotation{}.Decode(p.game.Position(), m.UCI())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMove, m.UCI())
	}
	return mv, nil
}

// Terminal describes how a finished game ended.
type Terminal struct {
	Outcome string // "white", "black", "draw"
	Method  string // "checkmate", "stalemate", "fifty_move_rule", ...
	Winner  Color  // zero value on draw
}

// Terminal returns nil while the game is in progress.
func (p *Position) Terminal() *Terminal {
	outcome := p.game.Outcome()
	if outcome == nchess.NoOutcome {
		return nil
	}
	t := &Terminal{Method: strings.ToLower(p.game.Method().String())}
	switch outcome {
	case nchess.WhiteWon:
		t.Outcome = "white"
		t.Winner = White
	case nchess.BlackWon:
		t.Outcome = "black"
		t.Winner = Black
	default:
		t.Outcome = "draw"
	}
	return t
}
