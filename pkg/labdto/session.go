package labdto

import "time"

// ScoreRow is one numbered line of the move table.
type ScoreRow struct {
	Number int    `json:"number"`
	White  string `json:"white"`
	Black  string `json:"black,omitempty"`
}

// SessionState is the full client-facing view of a session.
type SessionState struct {
	SessionID string     `json:"session_id"`
	FEN       string     `json:"fen"`
	StartFEN  string     `json:"start_fen,omitempty"`
	Turn      string     `json:"turn"`
	Source    string     `json:"source"` // source kind of the side to move
	White     string     `json:"white"`
	Black     string     `json:"black"`
	MovesSAN  []string   `json:"moves_san"`
	MovesUCI  []string   `json:"moves_uci"`
	Score     []ScoreRow `json:"score"`
	Armed     string     `json:"armed,omitempty"` // selected origin square
	Outcome   string     `json:"outcome,omitempty"`
	Method    string     `json:"method,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ArchivedGame is a finished game summary for history listings.
type ArchivedGame struct {
	ID      string    `json:"id"`
	White   string    `json:"white"`
	Black   string    `json:"black"`
	Result  string    `json:"result"`
	Method  string    `json:"method"`
	Moves   int       `json:"moves"`
	PGN     string    `json:"pgn,omitempty"`
	EndedAt time.Time `json:"ended_at"`
}
