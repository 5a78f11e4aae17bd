package matches

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/spigell/matchmate/internal/compare"
)

var accents = map[string]color.Attribute{
	compare.AccentA: color.FgHiMagenta,
	compare.AccentB: color.FgHiYellow,
	compare.AccentC: color.FgHiBlue,
}

// Printer writes views as terminal tables.
type Printer struct {
	Out io.Writer
	// Color enables ANSI accents; keep it off when the output is not a terminal.
	Color bool
}

// Paint renders text in the terminal color of accent.
func (p Printer) Paint(accent, text string) string {
	attr, ok := accents[accent]
	if !ok {
		return text
	}
	c := color.New(attr, color.Bold)
	if p.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func (p Printer) Print(v View) error {
	if v.Empty {
		_, err := fmt.Fprintln(p.Out, EmptyText)
		return err
	}

	if _, err := fmt.Fprintf(p.Out, "Your Matches (%d)\n", len(v.Cards)); err != nil {
		return err
	}
	return p.table(v.Cards)
}

// PrintGrouped prints one table per tier.
func (p Printer) PrintGrouped(v View) error {
	if v.Empty {
		_, err := fmt.Fprintln(p.Out, EmptyText)
		return err
	}

	for _, group := range v.GroupByTier() {
		if _, err := fmt.Fprintf(p.Out, "\n%s (%d)\n", group.Tier.Label, len(group.Cards)); err != nil {
			return err
		}
		if err := p.table(group.Cards); err != nil {
			return err
		}
	}
	return nil
}

func (p Printer) table(cards []Card) error {
	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("", "NAME", "SCORE", "RATING", "", "CHAT ROOM")

	for _, card := range cards {
		table.AddRow(
			card.Icon,
			card.Name,
			p.Paint(card.Color, card.Percent),
			strings.Repeat("★", card.Stars)+strings.Repeat("☆", 5-card.Stars),
			card.Blurb,
			card.ChatRoom,
		)
	}

	_, err := fmt.Fprintln(p.Out, table)
	return err
}
