// Package labdto defines the JSON shapes exchanged with clients over the
// gateway websocket.
package labdto

// Op names a client command.
type Op string

const (
	OpSelect    Op = "select"     // tap one square
	OpMove      Op = "move"       // submit a full move in UCI
	OpAsk       Op = "ask"        // question for the advisor
	OpSummary   Op = "summary"    // ask for a position summary
	OpHint      Op = "hint"       // engine suggestion for the side to move
	OpReset     Op = "reset"      // new game, optionally with new sources
	OpImportFEN Op = "import_fen" // restart from a position
	OpImportPGN Op = "import_pgn" // restart and replay a game
	OpExport    Op = "export"     // PGN of the current game
	OpState     Op = "state"      // full session snapshot
	OpHistory   Op = "history"    // recently archived games
)

// Command is one client request. Only the fields relevant to its op are set.
type Command struct {
	Op Op `json:"op"`

	Square   string `json:"square,omitempty"`   // select
	MoveUCI  string `json:"move_uci,omitempty"` // move
	Question string `json:"question,omitempty"` // ask

	FEN string `json:"fen,omitempty"` // import_fen
	PGN string `json:"pgn,omitempty"` // import_pgn

	White string `json:"white,omitempty"` // reset: human|engine|advisor
	Black string `json:"black,omitempty"` // reset

	Limit int `json:"limit,omitempty"` // history
}
