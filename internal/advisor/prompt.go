package advisor

import (
	"fmt"
	"strings"
)

const systemInstruction = `You are a strong, friendly chess coach. ` +
	`Answer about the game in front of you, grounded in the position and ` +
	`move history given. Be concrete and concise.`

// historyWindow caps how many recent plies a prompt carries. The FEN already
// pins the exact position, so older moves add tokens without grounding.
const historyWindow = 24

// PositionContext is the game state every prompt is grounded in.
type PositionContext struct {
	FEN        string
	SideToMove string
	SANHistory []string
	LegalUCI   []string
}

func (pc PositionContext) header() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current position (FEN): %s\n", pc.FEN)
	fmt.Fprintf(&sb, "Side to move: %s\n", pc.SideToMove)
	history := pc.SANHistory
	switch {
	case len(history) == 0:
		sb.WriteString("Moves so far: (game just started)\n")
	case len(history) > historyWindow:
		fmt.Fprintf(&sb, "Recent moves (last %d of %d): %s\n",
			historyWindow, len(history), strings.Join(history[len(history)-historyWindow:], " "))
	default:
		fmt.Fprintf(&sb, "Moves so far: %s\n", strings.Join(history, " "))
	}
	return sb.String()
}

// movePrompt asks for exactly one move in coordinate notation.
func movePrompt(pc PositionContext) string {
	var sb strings.Builder
	sb.WriteString(pc.header())
	if len(pc.LegalUCI) > 0 {
		fmt.Fprintf(&sb, "Legal moves (UCI): %s\n", strings.Join(pc.LegalUCI, " "))
	}
	sb.WriteString("\nChoose the best move for the side to move. ")
	sb.WriteString("Reply with the move in UCI notation (for example e2e4) ")
	sb.WriteString("followed by one short sentence of reasoning.")
	return sb.String()
}

// askPrompt wraps a user question with the position it refers to.
func askPrompt(pc PositionContext, question string) string {
	var sb strings.Builder
	sb.WriteString(pc.header())
	sb.WriteString("\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}

// summaryPrompt asks for a short plain-language read of the position.
func summaryPrompt(pc PositionContext) string {
	var sb strings.Builder
	sb.WriteString(pc.header())
	sb.WriteString("\nSummarize this position in two or three sentences: ")
	sb.WriteString("who stands better, the main imbalances, and one plan for each side.")
	return sb.String()
}
