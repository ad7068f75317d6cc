// Package gamebuilder wires configuration into the concrete services a
// session needs: engine pool, advisor client, and game archive.
package gamebuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/chess-lab/internal/advisor"
	"github.com/park285/chess-lab/internal/archive"
	"github.com/park285/chess-lab/internal/config"
	"github.com/park285/chess-lab/internal/engine"
)

type Deps struct {
	Engine  *engine.Engine   // nil when no binary is configured
	Advisor advisor.Generator // nil when no API key is configured
	Archive archive.Store

	EngineBudget    time.Duration
	TranscriptLimit int

	logger *zap.Logger
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Deps{
		EngineBudget:    time.Duration(cfg.EngineMoveTimeMillis) * time.Millisecond,
		TranscriptLimit: cfg.TranscriptLimit,
		logger:          logger,
	}

	// Engine is optional: sessions without an engine side still work, and
	// hint requests report the engine as unavailable.
	if strings.TrimSpace(cfg.StockfishPath) != "" {
		eng, err := engine.New(engine.Config{
			BinaryPath: cfg.StockfishPath,
			Threads:    cfg.EngineThreads,
			HashMB:     cfg.EngineHashMB,
			PoolSize:   cfg.EnginePoolSize,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init engine: %w", err)
		}
		deps.Engine = eng
	} else {
		logger.Warn("no engine binary configured, engine features disabled")
	}

	if strings.TrimSpace(cfg.AdvisorAPIKey) != "" {
		deps.Advisor = advisor.NewClient(
			cfg.AdvisorBaseURL, cfg.AdvisorModel, cfg.AdvisorAPIKey,
			advisor.WithTimeout(time.Duration(cfg.AdvisorTimeoutSec)*time.Second),
		)
	} else {
		logger.Warn("no advisor API key configured, advisor features disabled")
	}

	store, err := buildArchive(cfg, logger)
	if err != nil {
		deps.closePartial()
		return nil, err
	}
	deps.Archive = store

	return deps, nil
}

func buildArchive(cfg *config.AppConfig, logger *zap.Logger) (archive.Store, error) {
	switch {
	case strings.TrimSpace(cfg.DatabaseURL) != "":
		store, err := archive.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres archive: %w", err)
		}
		logger.Info("archive backend", zap.String("kind", "postgres"))
		return store, nil
	case strings.TrimSpace(cfg.RedisURL) != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		logger.Info("archive backend", zap.String("kind", "redis"))
		return archive.NewRedisStore(redis.NewClient(opts)), nil
	default:
		logger.Info("archive backend", zap.String("kind", "memory"))
		return archive.NewMemoryStore(), nil
	}
}

func (d *Deps) Close() error {
	d.closePartial()
	if d.Archive != nil {
		return d.Archive.Close()
	}
	return nil
}

func (d *Deps) closePartial() {
	if d.Engine != nil {
		if err := d.Engine.Close(); err != nil {
			d.logger.Warn("close engine", zap.Error(err))
		}
	}
}
