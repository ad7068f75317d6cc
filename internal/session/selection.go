package session

import (
	"sync"

	"github.com/park285/chess-lab/internal/rules"
)

// SelectEvent classifies what a point selection did.
type SelectEvent string

const (
	SelectIgnored  SelectEvent = "ignored"  // empty or opponent square while idle
	SelectArmed    SelectEvent = "armed"    // own piece chosen as origin
	SelectCleared  SelectEvent = "cleared"  // origin re-selected, deselect
	SelectMoved    SelectEvent = "moved"    // candidate emitted and accepted
	SelectRejected SelectEvent = "rejected" // candidate emitted and rejected
)

// SelectOutcome reports the transition taken for one selection event.
type SelectOutcome struct {
	Event  SelectEvent
	Origin rules.Square // set while armed
	Record *MoveRecord  // set on SelectMoved
	Err    error        // rejection reason on SelectRejected
}

// Selector turns a stream of discrete square selections into move
// candidates. It holds at most one armed origin square; it never judges
// legality, only whether a selection is a plausible move attempt. The
// orchestrator clears it whenever a move is accepted or rejected and on
// every reset.
type Selector struct {
	orch *Orchestrator

	mu    sync.Mutex
	armed *rules.Square
}

func NewSelector(o *Orchestrator) *Selector {
	s := &Selector{orch: o}
	o.attachSelector(s)
	return s
}

// Select consumes one point-selection event.
func (s *Selector) Select(sq rules.Square) SelectOutcome {
	origin := s.state()

	if origin == nil {
		if !s.orch.ownPieceAt(sq) {
			return SelectOutcome{Event: SelectIgnored}
		}
		s.arm(sq)
		return SelectOutcome{Event: SelectArmed, Origin: sq}
	}

	if *origin == sq {
		s.clear()
		return SelectOutcome{Event: SelectCleared}
	}

	candidate := rules.Move{From: *origin, To: sq}
	// Pointer input cannot express a promotion choice; a pawn reaching the
	// back rank always promotes to a queen here.
	if s.orch.promotionRequired(*origin, sq) {
		candidate.Promotion = rules.PromoQueen
	}
	s.clear()

	rec, err := s.orch.SubmitMove(candidate)
	if err != nil {
		return SelectOutcome{Event: SelectRejected, Err: err}
	}
	return SelectOutcome{Event: SelectMoved, Record: rec}
}

// Armed returns the currently armed origin square, if any.
func (s *Selector) Armed() (rules.Square, bool) {
	if origin := s.state(); origin != nil {
		return *origin, true
	}
	return "", false
}

func (s *Selector) state() *rules.Square {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

func (s *Selector) arm(sq rules.Square) {
	s.mu.Lock()
	s.armed = &sq
	s.mu.Unlock()
}

func (s *Selector) clear() {
	s.mu.Lock()
	s.armed = nil
	s.mu.Unlock()
}
