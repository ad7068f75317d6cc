package advisor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const defaultTranscriptCap = 40

const unavailableReply = "(advisor unavailable right now, try again in a moment)"

// Session is a grounded conversation about one game. Every request carries
// the live position and history from the source callback, so the model is
// never asked about a stale board.
type Session struct {
	gen    Generator
	source func() PositionContext
	cap    int
	logger *zap.Logger

	mu    sync.Mutex
	turns []Turn
}

func NewSession(gen Generator, source func() PositionContext, transcriptCap int, logger *zap.Logger) *Session {
	if transcriptCap <= 0 {
		transcriptCap = defaultTranscriptCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		gen:    gen,
		source: source,
		cap:    transcriptCap,
		logger: logger.Named("advisor"),
	}
}

// Ask answers a free-form question about the current game. The exchange is
// recorded in the transcript either way; on failure the recorded answer is a
// placeholder so the conversation stays coherent.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	pc := s.source()
	prompt := askPrompt(pc, question)

	s.mu.Lock()
	history := make([]Turn, len(s.turns), len(s.turns)+1)
	copy(history, s.turns)
	s.mu.Unlock()

	reply, err := s.gen.Generate(ctx, systemInstruction, append(history, Turn{Role: "user", Text: prompt}))
	if err != nil {
		s.logger.Warn("ask failed", zap.Error(err))
		s.record(question, unavailableReply)
		return unavailableReply, fmt.Errorf("ask advisor: %w", err)
	}

	s.record(question, reply)
	return reply, nil
}

// SummarizePosition produces a short assessment of the current position. The
// exchange is one-shot and leaves the transcript untouched; a caller that
// wants it in the conversation appends it itself.
func (s *Session) SummarizePosition(ctx context.Context) (string, error) {
	pc := s.source()

	reply, err := s.gen.Generate(ctx, systemInstruction, []Turn{{Role: "user", Text: summaryPrompt(pc)}})
	if err != nil {
		s.logger.Warn("summary failed", zap.Error(err))
		return unavailableReply, fmt.Errorf("summarize position: %w", err)
	}
	return reply, nil
}

// Transcript returns a copy of the recorded conversation, oldest first.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// ResetTranscript drops the conversation, e.g. when the game restarts.
func (s *Session) ResetTranscript() {
	s.mu.Lock()
	s.turns = nil
	s.mu.Unlock()
}

func (s *Session) record(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: "user", Text: question}, Turn{Role: "model", Text: answer})
	if excess := len(s.turns) - s.cap; excess > 0 {
		s.turns = append([]Turn(nil), s.turns[excess:]...)
	}
}
