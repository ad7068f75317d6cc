package advisor

import (
	"context"

	"github.com/park285/chess-lab/internal/rules"
)

// SuggestMove asks the model for one move in the given position. It returns
// the parsed move plus the full reply text for display; legality against the
// live position is the caller's job.
func SuggestMove(ctx context.Context, gen Generator, pc PositionContext) (rules.Move, string, error) {
	reply, err := gen.Generate(ctx, systemInstruction, []Turn{{Role: "user", Text: movePrompt(pc)}})
	if err != nil {
		return rules.Move{}, "", err
	}
	mv, err := ExtractMove(reply)
	if err != nil {
		return rules.Move{}, reply, err
	}
	return mv, reply, nil
}
