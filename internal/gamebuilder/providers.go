package gamebuilder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/chess-lab/internal/advisor"
	"github.com/park285/chess-lab/internal/engine"
	"github.com/park285/chess-lab/internal/rules"
	"github.com/park285/chess-lab/internal/session"
)

// EngineProvider adapts the UCI engine to the session's move source
// contract.
type EngineProvider struct {
	engine *engine.Engine
}

func NewEngineProvider(e *engine.Engine) *EngineProvider {
	return &EngineProvider{engine: e}
}

func (p *EngineProvider) ProposeMove(ctx context.Context, req session.ProviderRequest) (rules.Move, error) {
	if p == nil || p.engine == nil {
		return rules.Move{}, session.ErrProviderUnavailable
	}
	eval, err := p.engine.BestMove(ctx, req.StartFEN, req.MovesUCI, req.Budget)
	if err != nil {
		return rules.Move{}, fmt.Errorf("%w: %v", session.ErrProviderUnavailable, err)
	}
	return eval.Move, nil
}

// AdvisorProvider lets the LLM play a side. A reply with no usable move is a
// provider failure; the session keeps the board untouched and the turn can
// be retried.
type AdvisorProvider struct {
	gen    advisor.Generator
	logger *zap.Logger
}

func NewAdvisorProvider(gen advisor.Generator, logger *zap.Logger) *AdvisorProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorProvider{gen: gen, logger: logger.Named("advisor_provider")}
}

func (p *AdvisorProvider) ProposeMove(ctx context.Context, req session.ProviderRequest) (rules.Move, error) {
	if p == nil || p.gen == nil {
		return rules.Move{}, session.ErrProviderUnavailable
	}
	pc := advisor.PositionContext{
		FEN:        req.FEN,
		SideToMove: sideToMove(req.FEN),
		SANHistory: req.MovesSAN,
		LegalUCI:   req.LegalUCI,
	}
	mv, reply, err := advisor.SuggestMove(ctx, p.gen, pc)
	if err != nil {
		if errors.Is(err, advisor.ErrMalformedReply) {
			p.logger.Warn("no usable move in reply", zap.String("reply", reply))
		}
		return rules.Move{}, fmt.Errorf("%w: %v", session.ErrProviderUnavailable, err)
	}
	return mv, nil
}

func sideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) >= 2 && fields[1] == "b" {
		return "black"
	}
	return "white"
}
