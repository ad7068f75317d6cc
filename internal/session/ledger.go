package session

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ledger is the append-only record of applied moves. It is owned by the
// orchestrator; both projections below are pure and may be called mid-game.
type Ledger struct {
	startFEN    string // "" for the standard initial position
	startNumber int    // full-move number of the first recorded move
	blackFirst  bool   // Black is to move in the start position
	records     []MoveRecord
}

func NewLedger(startFEN string) *Ledger {
	l := &Ledger{startFEN: strings.TrimSpace(startFEN), startNumber: 1}
	if fields := strings.Fields(l.startFEN); len(fields) >= 6 {
		l.blackFirst = fields[1] == "b"
		if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
			l.startNumber = n
		}
	}
	return l
}

func (l *Ledger) add(rec MoveRecord) {
	l.records = append(l.records, rec)
}

func (l *Ledger) Len() int { return len(l.records) }

func (l *Ledger) Records() []MoveRecord {
	return append([]MoveRecord(nil), l.records...)
}

func (l *Ledger) uciMoves() []string {
	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.Move.UCI()
	}
	return out
}

func (l *Ledger) sanMoves() []string {
	out := make([]string, len(l.records))
	for i, r := range l.records {
		out[i] = r.SAN
	}
	return out
}

// ScoreRow is one full move on the scoresheet. Black is empty when White has
// moved but Black has not yet replied.
type ScoreRow struct {
	Number int
	White  string
	Black  string
}

// ScoreTable pairs the SAN move list into scoresheet rows keyed by full-move
// number. Numbering follows the start position, so a game imported with
// Black to move opens with a White-less row.
func (l *Ledger) ScoreTable() []ScoreRow {
	rows := make([]ScoreRow, 0, len(l.records)/2+1)
	i := 0
	number := l.startNumber
	if l.blackFirst && len(l.records) > 0 {
		rows = append(rows, ScoreRow{Number: number, Black: l.records[0].SAN})
		number++
		i = 1
	}
	for ; i < len(l.records); i += 2 {
		row := ScoreRow{Number: number, White: l.records[i].SAN}
		if i+1 < len(l.records) {
			row.Black = l.records[i+1].SAN
		}
		rows = append(rows, row)
		number++
	}
	return rows
}

// GameMeta is the header metadata attached to an exported game record.
type GameMeta struct {
	Event string
	Site  string
	White string
	Black string
	Date  time.Time
}

// PGN serializes the recorded game as portable game text. The result token
// is supplied by the caller ("1-0", "0-1", "1/2-1/2", or "*" while the game
// is still running).
func (l *Ledger) PGN(meta GameMeta, result string) string {
	var b strings.Builder
	date := meta.Date
	if date.IsZero() {
		date = time.Now()
	}
	if result == "" {
		result = "*"
	}
	writeTag := func(name, value string) {
		b.WriteString(fmt.Sprintf("[%s \"%s\"]\n", name, sanitizeTag(value)))
	}
	writeTag("Event", defaultTag(meta.Event, "Chess Lab"))
	writeTag("Site", defaultTag(meta.Site, "chess-lab"))
	writeTag("Date", fmt.Sprintf("%04d.%02d.%02d", date.Year(), int(date.Month()), date.Day()))
	writeTag("White", defaultTag(meta.White, "?"))
	writeTag("Black", defaultTag(meta.Black, "?"))
	if l.startFEN != "" {
		writeTag("SetUp", "1")
		writeTag("FEN", l.startFEN)
	}
	writeTag("Result", result)
	b.WriteString("\n")

	i := 0
	number := l.startNumber
	if l.blackFirst && len(l.records) > 0 {
		b.WriteString(fmt.Sprintf("%d... %s ", number, l.records[0].SAN))
		number++
		i = 1
	}
	for ; i < len(l.records); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", number, l.records[i].SAN))
		if i+1 < len(l.records) {
			b.WriteString(" ")
			b.WriteString(l.records[i+1].SAN)
		}
		b.WriteString(" ")
		number++
	}
	b.WriteString(result)
	return b.String()
}

func defaultTag(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func sanitizeTag(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
