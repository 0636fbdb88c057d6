package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cleared-dev/smsledger/internal/review"
)

// Run opens session and drives it until the user quits or nothing is
// left to review. It returns the counts of applied and skipped candidates.
func Run(ctx context.Context, session *review.Session, opts Options, in io.Reader, out io.Writer) (applied, skipped int, err error) {
	if err := session.Open(ctx); err != nil {
		return 0, 0, err
	}
	defer session.Close()

	p := tea.NewProgram(New(ctx, session, opts), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return 0, 0, fmt.Errorf("running review UI: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return 0, 0, nil
	}
	return m.Applied(), m.Skipped(), nil
}
