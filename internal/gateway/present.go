package gateway

import (
	"github.com/park285/chess-lab/internal/rules"
	"github.com/park285/chess-lab/internal/session"
	"github.com/park285/chess-lab/pkg/labdto"
)

func (c *conn) state() *labdto.SessionState {
	st := c.orch.Snapshot()

	out := &labdto.SessionState{
		SessionID: st.SessionID,
		FEN:       st.FEN,
		StartFEN:  st.StartFEN,
		Turn:      string(st.Turn),
		Source:    string(st.Source),
		White:     c.whiteSrc,
		Black:     c.blackSrc,
		MovesSAN:  st.MovesSAN(),
		MovesUCI:  st.MovesUCI(),
		StartedAt: st.StartedAt,
		UpdatedAt: st.UpdatedAt,
	}

	for _, row := range c.orch.ScoreTable() {
		out.Score = append(out.Score, labdto.ScoreRow{Number: row.Number, White: row.White, Black: row.Black})
	}
	if origin, ok := c.selector.Armed(); ok {
		out.Armed = string(origin)
	}
	if st.Terminal != nil {
		out.Outcome = st.Terminal.Outcome
		out.Method = st.Terminal.Method
	}
	return out
}

func (c *conn) exportPGN() string {
	return c.orch.PGN(session.GameMeta{
		Event: "Chess Lab",
		Site:  "chess-lab",
		White: c.whiteSrc,
		Black: c.blackSrc,
	})
}

func (c *conn) sourceOfSlot(slot rules.Color) string {
	if slot == rules.White {
		return c.whiteSrc
	}
	return c.blackSrc
}
