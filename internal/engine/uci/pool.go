package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
)

type PoolConfig struct {
	BinaryPath string
	Capacity   int
	Options    Options
}

// Pool keeps a bounded set of reusable engine sessions with identical
// options. Acquire hands out a ready session, creating one when none are
// idle and the cap allows it.
type Pool struct {
	binaryPath string
	capacity   int
	opt        Options

	mu       sync.Mutex
	total    int
	idle     chan *Session
	borrowed map[*Session]struct{}
}

var errPoolAtCapacity = errors.New("engine pool at capacity")

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultPoolCapacity()
	}

	return &Pool{
		binaryPath: cfg.BinaryPath,
		capacity:   capacity,
		opt:        cfg.Options,
		idle:       make(chan *Session, capacity),
		borrowed:   make(map[*Session]struct{}),
	}, nil
}

func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		select {
		case session := <-p.idle:
			if session == nil {
				continue
			}
			if err := session.EnsureReady(ctx); err != nil {
				p.discard(session)
				continue
			}
			p.track(session)
			return session, nil
		default:
		}

		session, err := p.create(ctx)
		if err == nil {
			p.track(session)
			return session, nil
		}
		if !errors.Is(err, errPoolAtCapacity) {
			return nil, err
		}

		select {
		case session := <-p.idle:
			if session == nil {
				continue
			}
			if err := session.EnsureReady(ctx); err != nil {
				p.discard(session)
				continue
			}
			p.track(session)
			return session, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release returns a session to the pool, or drops it when the preceding
// search failed.
func (p *Pool) Release(session *Session, err error) {
	if session == nil {
		return
	}

	p.mu.Lock()
	_, tracked := p.borrowed[session]
	if !tracked {
		p.mu.Unlock()
		_ = session.Close()
		return
	}
	delete(p.borrowed, session)
	p.mu.Unlock()

	if err != nil {
		p.discardUntracked(session)
		return
	}

	select {
	case p.idle <- session:
	default:
		p.discardUntracked(session)
	}
}

func (p *Pool) Close() error {
	var errs []error
	for {
		select {
		case session := <-p.idle:
			if session == nil {
				continue
			}
			if err := session.Close(); err != nil {
				errs = append(errs, err)
			}
			p.decrement()
		default:
			if len(errs) > 0 {
				return errors.Join(errs...)
			}
			return nil
		}
	}
}

func (p *Pool) create(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.total >= p.capacity {
		p.mu.Unlock()
		return nil, errPoolAtCapacity
	}
	p.total++
	p.mu.Unlock()

	session, err := NewSession(ctx, p.binaryPath, p.opt)
	if err != nil {
		p.decrement()
		return nil, err
	}
	return session, nil
}

func (p *Pool) track(session *Session) {
	p.mu.Lock()
	p.borrowed[session] = struct{}{}
	p.mu.Unlock()
}

func (p *Pool) discard(session *Session) {
	p.mu.Lock()
	delete(p.borrowed, session)
	p.mu.Unlock()
	p.discardUntracked(session)
}

func (p *Pool) discardUntracked(session *Session) {
	_ = session.Close()
	p.decrement()
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.mu.Unlock()
}

func defaultPoolCapacity() int {
	cpu := runtime.NumCPU()
	if cpu < 2 {
		return 2
	}
	if cpu > 4 {
		return 4
	}
	return cpu
}
