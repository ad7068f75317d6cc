package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chess-lab/internal/advisor"
	"github.com/park285/chess-lab/internal/archive"
	"github.com/park285/chess-lab/internal/config"
	"github.com/park285/chess-lab/internal/gamebuilder"
	"github.com/park285/chess-lab/internal/rules"
	"github.com/park285/chess-lab/internal/session"
	"github.com/park285/chess-lab/pkg/labdto"
)

// conn is one websocket client and its live game. Commands are handled
// sequentially in the read loop, so no write lock is needed.
type conn struct {
	ws     *websocket.Conn
	cfg    *config.AppConfig
	deps   *gamebuilder.Deps
	logger *zap.Logger

	orch     *session.Orchestrator
	selector *session.Selector
	advice   *advisor.Session

	whiteSrc string
	blackSrc string
	archived bool
}

func newConn(ws *websocket.Conn, cfg *config.AppConfig, deps *gamebuilder.Deps, logger *zap.Logger) (*conn, error) {
	c := &conn{
		ws:     ws,
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("conn"),
	}

	white, err := session.ParseSourceKind(cfg.DefaultWhite)
	if err != nil {
		return nil, err
	}
	black, err := session.ParseSourceKind(cfg.DefaultBlack)
	if err != nil {
		return nil, err
	}

	providers := map[session.SourceKind]session.MoveProvider{
		session.SourceEngine:  gamebuilder.NewEngineProvider(deps.Engine),
		session.SourceAdvisor: gamebuilder.NewAdvisorProvider(deps.Advisor, logger),
	}
	orch, err := session.New(session.Config{
		White:        white,
		Black:        black,
		EngineBudget: deps.EngineBudget,
	}, providers, logger)
	if err != nil {
		return nil, err
	}
	c.orch = orch
	c.selector = session.NewSelector(orch)
	c.whiteSrc = string(white)
	c.blackSrc = string(black)

	if deps.Advisor != nil {
		c.advice = advisor.NewSession(deps.Advisor, c.positionContext, deps.TranscriptLimit, logger)
	}
	return c, nil
}

func (c *conn) serve(ctx context.Context) {
	defer func() { _ = c.ws.Close(websocket.StatusNormalClosure, "bye") }()

	c.send(ctx, labdto.Event{Type: labdto.EventState, State: c.state()})
	c.runAutomation(ctx)

	for {
		var cmd labdto.Command
		if err := wsjson.Read(ctx, c.ws, &cmd); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				c.logger.Debug("read loop ended", zap.Error(err))
			}
			return
		}
		c.handle(ctx, cmd)
	}
}

func (c *conn) handle(ctx context.Context, cmd labdto.Command) {
	switch cmd.Op {
	case labdto.OpSelect:
		c.handleSelect(ctx, cmd.Square)
	case labdto.OpMove:
		c.handleMove(ctx, cmd.MoveUCI)
	case labdto.OpAsk:
		c.handleAsk(ctx, cmd.Question)
	case labdto.OpSummary:
		c.handleSummary(ctx)
	case labdto.OpHint:
		c.handleHint(ctx)
	case labdto.OpReset:
		c.handleReset(ctx, cmd.White, cmd.Black, "")
	case labdto.OpImportFEN:
		c.handleReset(ctx, cmd.White, cmd.Black, cmd.FEN)
	case labdto.OpImportPGN:
		c.handleImportPGN(ctx, cmd)
	case labdto.OpExport:
		c.send(ctx, labdto.Event{Type: labdto.EventPGN, PGN: c.exportPGN()})
	case labdto.OpState:
		c.send(ctx, labdto.Event{Type: labdto.EventState, State: c.state()})
	case labdto.OpHistory:
		c.handleHistory(ctx, cmd.Limit)
	default:
		c.sendError(ctx, "bad_request", fmt.Sprintf("unknown op %q", cmd.Op))
		return
	}
	c.runAutomation(ctx)
}

func (c *conn) handleSelect(ctx context.Context, square string) {
	sq, err := rules.ParseSquare(square)
	if err != nil {
		c.sendError(ctx, "bad_request", err.Error())
		return
	}

	out := c.selector.Select(sq)
	sel := &labdto.Selection{Event: string(out.Event)}
	if out.Origin != "" {
		sel.Origin = string(out.Origin)
	}
	if out.Err != nil {
		sel.Reason = out.Err.Error()
	}
	c.send(ctx, labdto.Event{Type: labdto.EventSelection, Selection: sel, State: c.state()})

	if out.Event == session.SelectMoved && out.Record != nil {
		c.emitMove(ctx, *out.Record)
	}
}

func (c *conn) handleMove(ctx context.Context, uci string) {
	mv, err := rules.ParseUCIMove(uci)
	if err != nil {
		c.sendError(ctx, "bad_request", err.Error())
		return
	}
	rec, err := c.orch.SubmitMove(mv)
	if err != nil {
		c.sendError(ctx, errorCode(err), err.Error())
		return
	}
	c.emitMove(ctx, *rec)
}

func (c *conn) handleAsk(ctx context.Context, question string) {
	if c.advice == nil {
		c.sendError(ctx, "provider_unavailable", "advisor is not configured")
		return
	}
	if strings.TrimSpace(question) == "" {
		c.sendError(ctx, "bad_request", "question required")
		return
	}
	reply, err := c.advice.Ask(ctx, question)
	if err != nil {
		c.logger.Warn("advisor ask failed", zap.Error(err))
	}
	c.send(ctx, labdto.Event{Type: labdto.EventAdvice, Advice: reply})
}

func (c *conn) handleSummary(ctx context.Context) {
	if c.advice == nil {
		c.sendError(ctx, "provider_unavailable", "advisor is not configured")
		return
	}
	reply, err := c.advice.SummarizePosition(ctx)
	if err != nil {
		c.logger.Warn("advisor summary failed", zap.Error(err))
	}
	c.send(ctx, labdto.Event{Type: labdto.EventAdvice, Advice: reply})
}

func (c *conn) handleHint(ctx context.Context) {
	if c.deps.Engine == nil {
		c.sendError(ctx, "provider_unavailable", "engine is not configured")
		return
	}
	st := c.orch.Snapshot()
	if st.Terminal != nil {
		c.sendError(ctx, "game_over", "game is finished")
		return
	}

	eval, err := c.deps.Engine.BestMove(ctx, st.StartFEN, st.MovesUCI(), c.deps.EngineBudget)
	if err != nil {
		c.sendError(ctx, "provider_unavailable", err.Error())
		return
	}

	hint := &labdto.Hint{UCI: eval.Move.UCI(), EvalCP: eval.EvalCP}
	if pos, perr := rules.ParsePosition(st.FEN); perr == nil {
		if san, serr := pos.SAN(eval.Move); serr == nil {
			hint.SAN = san
		}
	}
	c.send(ctx, labdto.Event{Type: labdto.EventHint, Hint: hint})
}

func (c *conn) handleReset(ctx context.Context, white, black, startFEN string) {
	cfg, err := c.sessionConfig(white, black)
	if err != nil {
		c.sendError(ctx, "bad_request", err.Error())
		return
	}
	cfg.StartFEN = strings.TrimSpace(startFEN)

	if err := c.orch.Reset(cfg); err != nil {
		c.sendError(ctx, errorCode(err), err.Error())
		return
	}
	c.whiteSrc, c.blackSrc = string(cfg.White), string(cfg.Black)
	c.archived = false
	if c.advice != nil {
		c.advice.ResetTranscript()
	}
	c.send(ctx, labdto.Event{Type: labdto.EventState, State: c.state()})
}

func (c *conn) handleImportPGN(ctx context.Context, cmd labdto.Command) {
	moves, err := rules.ParseGameText(cmd.PGN)
	if err != nil {
		c.sendError(ctx, "bad_request", err.Error())
		return
	}

	cfg, err := c.sessionConfig(cmd.White, cmd.Black)
	if err != nil {
		c.sendError(ctx, "bad_request", err.Error())
		return
	}
	if err := c.orch.Reset(cfg); err != nil {
		c.sendError(ctx, errorCode(err), err.Error())
		return
	}
	c.whiteSrc, c.blackSrc = string(cfg.White), string(cfg.Black)
	c.archived = false
	if c.advice != nil {
		c.advice.ResetTranscript()
	}

	for _, mv := range moves {
		if _, err := c.orch.SubmitMove(mv); err != nil {
			c.sendError(ctx, errorCode(err), fmt.Sprintf("replay %s: %v", mv.UCI(), err))
			return
		}
	}
	c.send(ctx, labdto.Event{Type: labdto.EventState, State: c.state()})
	c.maybeArchive(ctx)
}

func (c *conn) handleHistory(ctx context.Context, limit int) {
	recs, err := c.deps.Archive.Recent(ctx, limit)
	if err != nil {
		c.sendError(ctx, "internal", err.Error())
		return
	}
	games := make([]labdto.ArchivedGame, 0, len(recs))
	for _, r := range recs {
		games = append(games, labdto.ArchivedGame{
			ID:      r.ID,
			White:   r.White,
			Black:   r.Black,
			Result:  r.Result,
			Method:  r.Method,
			Moves:   len(r.MovesSAN),
			EndedAt: r.EndedAt,
		})
	}
	c.send(ctx, labdto.Event{Type: labdto.EventHistory, History: games})
}

// runAutomation plays automated sides until it is a human's turn, the game
// ends, or a provider fails. A failed turn is not fatal: the next client
// command triggers another attempt.
func (c *conn) runAutomation(ctx context.Context) {
	for {
		if done, _ := c.orch.IsTerminal(); done {
			c.maybeArchive(ctx)
			return
		}
		if c.orch.SourceForTurn() == session.SourceHuman {
			return
		}

		rec, err := c.orch.RequestAutomatedMove(ctx)
		if err != nil {
			if errors.Is(err, session.ErrStaleResult) {
				continue
			}
			c.logger.Warn("automated move failed", zap.Error(err))
			c.sendError(ctx, errorCode(err), err.Error())
			return
		}
		c.emitMove(ctx, *rec)
	}
}

func (c *conn) emitMove(ctx context.Context, rec session.MoveRecord) {
	c.send(ctx, labdto.Event{
		Type: labdto.EventMove,
		Move: &labdto.MovePlayed{
			Ordinal: rec.Ordinal,
			Slot:    string(rec.Slot),
			Source:  c.sourceOfSlot(rec.Slot),
			UCI:     rec.Move.UCI(),
			SAN:     rec.SAN,
			FEN:     rec.FEN,
		},
		State: c.state(),
	})
	c.maybeArchive(ctx)
}

func (c *conn) maybeArchive(ctx context.Context) {
	done, term := c.orch.IsTerminal()
	if !done || c.archived {
		return
	}
	c.archived = true

	st := c.orch.Snapshot()
	rec := &archive.Record{
		ID:        st.SessionID,
		SessionID: st.SessionID,
		White:     c.whiteSrc,
		Black:     c.blackSrc,
		Result:    term.Outcome,
		Method:    term.Method,
		StartFEN:  st.StartFEN,
		MovesUCI:  st.MovesUCI(),
		MovesSAN:  st.MovesSAN(),
		PGN:       c.exportPGN(),
		StartedAt: st.StartedAt,
		EndedAt:   st.UpdatedAt,
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deps.Archive.Save(saveCtx, rec); err != nil {
		c.logger.Warn("archive save failed", zap.Error(err))
	}

	c.send(ctx, labdto.Event{Type: labdto.EventGameOver, State: c.state()})
}

func (c *conn) sessionConfig(white, black string) (session.Config, error) {
	if white == "" {
		white = c.cfg.DefaultWhite
	}
	if black == "" {
		black = c.cfg.DefaultBlack
	}
	w, err := session.ParseSourceKind(white)
	if err != nil {
		return session.Config{}, err
	}
	b, err := session.ParseSourceKind(black)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{White: w, Black: b, EngineBudget: c.deps.EngineBudget}, nil
}

func (c *conn) positionContext() advisor.PositionContext {
	st := c.orch.Snapshot()
	return advisor.PositionContext{
		FEN:        st.FEN,
		SideToMove: string(st.Turn),
		SANHistory: st.MovesSAN(),
	}
}

func (c *conn) send(ctx context.Context, ev labdto.Event) {
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := wsjson.Write(writeCtx, c.ws, ev); err != nil {
		c.logger.Debug("write failed", zap.Error(err))
	}
}

func (c *conn) sendError(ctx context.Context, code, msg string) {
	c.send(ctx, labdto.Event{Type: labdto.EventError, Error: &labdto.Error{Code: code, Message: msg}})
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrIllegalMove):
		return "illegal_move"
	case errors.Is(err, session.ErrGameOver):
		return "game_over"
	case errors.Is(err, session.ErrHumanTurn):
		return "human_turn"
	case errors.Is(err, session.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, session.ErrStaleResult):
		return "stale_result"
	case errors.Is(err, rules.ErrInvalidPosition), errors.Is(err, rules.ErrInvalidMove), errors.Is(err, rules.ErrInvalidSquare):
		return "bad_request"
	default:
		return "internal"
	}
}
