// Package tui is the interactive review screen: one candidate at a time,
// with inline field editing, apply, skip and manual entry.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cleared-dev/smsledger/internal/candidates"
	"github.com/cleared-dev/smsledger/internal/ledger"
	"github.com/cleared-dev/smsledger/internal/model"
	"github.com/cleared-dev/smsledger/internal/review"
)

// Options configures a Model.
type Options struct {
	// Recipients and Categories feed field autocompletion.
	Recipients []string
	Categories []string
	Keys       *KeyMap
}

// Model is the bubbletea model around a review.Session. The session must
// already be open.
type Model struct {
	ctx     context.Context
	session *review.Session
	keys    KeyMap
	input   textinput.Model

	recipients []string
	categories []string

	editing bool
	field   candidates.Field
	status  string
	err     error
	applied int
	skipped int
	done    bool
	width   int
}

// New creates a Model driving session.
func New(ctx context.Context, session *review.Session, opts Options) Model {
	in := textinput.New()
	in.CharLimit = 80
	in.ShowSuggestions = true

	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	return Model{
		ctx:        ctx,
		session:    session,
		keys:       keys,
		input:      in,
		recipients: opts.Recipients,
		categories: opts.Categories,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Applied returns how many candidates were applied.
func (m Model) Applied() int { return m.applied }

// Skipped returns how many candidates were skipped.
func (m Model) Skipped() int { return m.skipped }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}
	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.done = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		m.session.Next()
		m.status = ""
	case key.Matches(msg, m.keys.Prev):
		m.session.Prev()
		m.status = ""
	case key.Matches(msg, m.keys.Apply):
		return m.apply()
	case key.Matches(msg, m.keys.Skip):
		if err := m.session.Skip(m.ctx); err != nil {
			m.err = err
			return m, nil
		}
		m.skipped++
		m.status = "Skipped."
		return m.finishIfClosed()
	case key.Matches(msg, m.keys.Manual):
		if _, err := m.session.AddManual(m.ctx); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "Manual entry added."
		return m.startEditing(candidates.FieldRecipient)
	case key.Matches(msg, m.keys.ToggleType):
		cur, err := m.session.Current()
		if err != nil {
			m.err = err
			return m, nil
		}
		next := model.Credit
		if cur.Direction == model.Credit {
			next = model.Debit
		}
		if _, err := m.session.Edit(m.ctx, candidates.FieldDirection, string(next)); err != nil {
			m.err = err
		}
	case key.Matches(msg, m.keys.EditRecipient):
		return m.startEditing(candidates.FieldRecipient)
	case key.Matches(msg, m.keys.EditCategory):
		return m.startEditing(candidates.FieldCategory)
	case key.Matches(msg, m.keys.EditIcon):
		return m.startEditing(candidates.FieldCategoryIcon)
	case key.Matches(msg, m.keys.EditAmount):
		return m.startEditing(candidates.FieldAmount)
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Commit):
		if _, err := m.session.Edit(m.ctx, m.field, m.input.Value()); err != nil {
			m.err = err
			return m, nil
		}
		m.editing = false
		m.input.Blur()
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.DeleteWord):
		if cur, err := m.session.Current(); err == nil && candidates.Get(cur, m.field) != m.input.Value() {
			if _, err := m.session.Edit(m.ctx, m.field, m.input.Value()); err != nil {
				m.err = err
				return m, nil
			}
		}
		c, err := m.session.TrimField(m.ctx, m.field)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.input.SetValue(candidates.Get(c, m.field))
		m.input.CursorEnd()
		if m.session.Focused() == "" {
			m.editing = false
			m.input.Blur()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) startEditing(field candidates.Field) (tea.Model, tea.Cmd) {
	cur, err := m.session.Current()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.session.Focus(field)
	m.field = field
	m.editing = true
	m.input.Prompt = string(field) + ": "
	m.input.SetValue(candidates.Get(cur, field))
	m.input.CursorEnd()
	switch field {
	case candidates.FieldRecipient:
		m.input.SetSuggestions(m.recipients)
	case candidates.FieldCategory:
		m.input.SetSuggestions(m.categories)
	default:
		m.input.SetSuggestions(nil)
	}
	return m, m.input.Focus()
}

func (m Model) apply() (tea.Model, tea.Cmd) {
	res, err := m.session.Apply(m.ctx)
	if err != nil {
		m.err = err
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			return m.startEditing(verr.Field)
		}
		return m, nil
	}
	if res.Outcome == ledger.OutcomeUnresolved {
		m.status = "Account not found; nothing applied. Skip this entry or add the account."
		return m, nil
	}
	m.applied++
	m.status = fmt.Sprintf("Applied. %s balance %s.", res.Primary.Label(), model.FormatAmount(res.Balance))
	return m.finishIfClosed()
}

func (m Model) finishIfClosed() (tea.Model, tea.Cmd) {
	if !m.session.IsOpen() {
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done || !m.session.IsOpen() {
		return successStyle.Render(fmt.Sprintf("Review finished: %d applied, %d skipped.", m.applied, m.skipped)) + "\n"
	}
	cur, err := m.session.Current()
	if err != nil {
		return errorStyle.Render(err.Error()) + "\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Review %d/%d", m.session.Position()+1, m.session.Len())))
	b.WriteString("\n")

	box := messageStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	b.WriteString(box.Render(cur.RawMessage))
	b.WriteString("\n")

	b.WriteString(m.row("account", cur.LastFourDigits, ""))
	for _, f := range candidates.Fields {
		if f == candidates.FieldDirection {
			continue
		}
		b.WriteString(m.row(string(f), candidates.Get(cur, f), f))
	}
	dir := debitStyle.Render(string(cur.Direction))
	if cur.Direction == model.Credit {
		dir = creditStyle.Render(string(cur.Direction))
	}
	b.WriteString(labelStyle.Render("type") + dir + "\n")

	if m.editing {
		b.WriteString("\n" + m.input.View() + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("\n" + successStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render(m.help()) + "\n")
	return b.String()
}

func (m Model) row(label, value string, f candidates.Field) string {
	if value == "" {
		value = "-"
	}
	if f != "" && f == m.session.Focused() {
		value = focusStyle.Render(value)
	}
	return labelStyle.Render(label) + value + "\n"
}

func (m Model) help() string {
	var bindings []key.Binding
	if m.editing {
		bindings = []key.Binding{m.keys.Commit, m.keys.DeleteWord, m.keys.Cancel}
	} else {
		bindings = []key.Binding{
			m.keys.Prev, m.keys.Next, m.keys.Apply, m.keys.Skip,
			m.keys.EditRecipient, m.keys.EditCategory, m.keys.EditIcon, m.keys.EditAmount,
			m.keys.ToggleType, m.keys.Manual, m.keys.Quit,
		}
	}
	parts := make([]string, len(bindings))
	for i, kb := range bindings {
		h := kb.Help()
		parts[i] = "[" + h.Key + "] " + h.Desc
	}
	return strings.Join(parts, " | ")
}
