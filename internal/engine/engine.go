// Package engine exposes a Stockfish-backed move source on top of a
// pooled UCI session layer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-lab/internal/engine/uci"
	"github.com/park285/chess-lab/internal/rules"
)

var (
	// ErrNotInstalled means the engine binary could not be found or started.
	ErrNotInstalled = errors.New("engine not installed")
	// ErrProcess covers protocol and process failures during a search.
	ErrProcess = errors.New("engine process failure")
	// ErrTimeout means the engine did not answer within its budget.
	ErrTimeout = errors.New("engine timeout")
)

type Config struct {
	BinaryPath string
	Threads    int
	HashMB     int
	PoolSize   int
}

// Engine asks a UCI process for the best move in a position.
type Engine struct {
	pool   *uci.Pool
	logger *zap.Logger
}

// Evaluation is a search result translated into session terms.
type Evaluation struct {
	Move   rules.Move
	EvalCP int
}

func New(cfg Config, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("%w: no binary path configured", ErrNotInstalled)
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotInstalled, cfg.BinaryPath, err)
	}

	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath: cfg.BinaryPath,
		Capacity:   cfg.PoolSize,
		Options: uci.Options{
			Threads: cfg.Threads,
			HashMB:  cfg.HashMB,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}

	return &Engine{pool: pool, logger: logger.Named("engine")}, nil
}

// BestMove searches the position reached from startFEN by the given
// coordinate moves and returns the engine's choice with its evaluation.
func (e *Engine) BestMove(ctx context.Context, startFEN string, moves []string, budget time.Duration) (Evaluation, error) {
	if budget <= 0 {
		budget = time.Second
	}

	session, err := e.pool.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Evaluation{}, fmt.Errorf("%w: acquire session: %v", ErrTimeout, err)
		}
		return Evaluation{}, fmt.Errorf("%w: acquire session: %v", ErrProcess, err)
	}

	res, err := session.Search(ctx, uci.SearchRequest{
		FEN:      startFEN,
		Moves:    moves,
		MoveTime: budget,
	})
	e.pool.Release(session, err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Evaluation{}, fmt.Errorf("%w: search: %v", ErrTimeout, err)
		}
		return Evaluation{}, fmt.Errorf("%w: search: %v", ErrProcess, err)
	}

	mv, err := rules.ParseUCIMove(res.BestMove)
	if err != nil {
		e.logger.Warn("unparsable engine move", zap.String("bestmove", res.BestMove))
		return Evaluation{}, fmt.Errorf("%w: bestmove %q: %v", ErrProcess, res.BestMove, err)
	}

	e.logger.Debug("engine search done",
		zap.String("bestmove", res.BestMove),
		zap.Int("eval_cp", res.EvalCP),
		zap.Duration("budget", budget),
	)
	return Evaluation{Move: mv, EvalCP: res.EvalCP}, nil
}

func (e *Engine) Close() error {
	return e.pool.Close()
}
