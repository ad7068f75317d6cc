package advisor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/park285/chess-lab/internal/rules"
)

// Replies are free text; the first thing that looks like a coordinate move
// is taken as the suggestion and everything else is commentary.
var uciMovePattern = regexp.MustCompile(`(?i)\b([a-h][1-8][a-h][1-8][qrbn]?)\b`)

// ExtractMove pulls the first coordinate move out of a model reply.
func ExtractMove(reply string) (rules.Move, error) {
	match := uciMovePattern.FindString(reply)
	if match == "" {
		return rules.Move{}, fmt.Errorf("%w: no coordinate move in %q", ErrMalformedReply, truncate(reply, 256))
	}
	mv, err := rules.ParseUCIMove(strings.ToLower(match))
	if err != nil {
		return rules.Move{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return mv, nil
}
