package labdto

// EventType names a server push.
type EventType string

const (
	EventState     EventType = "state"
	EventSelection EventType = "selection"
	EventMove      EventType = "move"
	EventGameOver  EventType = "game_over"
	EventAdvice    EventType = "advice"
	EventHint      EventType = "hint"
	EventPGN       EventType = "pgn"
	EventHistory   EventType = "history"
	EventError     EventType = "error"
)

// Event is one server message. State rides along on everything that changes
// the board so clients never need a follow-up fetch.
type Event struct {
	Type EventType `json:"type"`

	State     *SessionState `json:"state,omitempty"`
	Selection *Selection    `json:"selection,omitempty"`
	Move      *MovePlayed   `json:"move,omitempty"`

	Advice string `json:"advice,omitempty"`
	Hint   *Hint  `json:"hint,omitempty"`
	PGN    string `json:"pgn,omitempty"`

	History []ArchivedGame `json:"history,omitempty"`

	Error *Error `json:"error,omitempty"`
}

// Selection reports the selection machine after a tap.
type Selection struct {
	Event  string `json:"event"` // ignored|armed|cleared|moved|rejected
	Origin string `json:"origin,omitempty"`
	Reason string `json:"reason,omitempty"` // rejection reason
}

// MovePlayed is one accepted move.
type MovePlayed struct {
	Ordinal int    `json:"ordinal"`
	Slot    string `json:"slot"` // white|black
	Source  string `json:"source"`
	UCI     string `json:"uci"`
	SAN     string `json:"san"`
	FEN     string `json:"fen"`
}

// Hint is an engine suggestion that is not played.
type Hint struct {
	UCI    string `json:"uci"`
	SAN    string `json:"san,omitempty"`
	EvalCP int    `json:"eval_cp"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}
