package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/satsrate/internal/convert"
	"github.com/five82/satsrate/internal/logtail"
	"github.com/five82/satsrate/internal/quote"
	"github.com/five82/satsrate/internal/share"
)

// Messages

type tickMsg time.Time

type fetchStartMsg struct{}

type ratesMsg struct {
	rates convert.RateSet
	err   error
}

type clipboardMsg struct{ err error }

type noticeExpiredMsg int

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	refresher, ctx := m.refresher, m.ctx
	return func() tea.Msg {
		rates, err := refresher.Refresh(ctx)
		return ratesMsg{rates: rates, err: err}
	}
}

func (m Model) copyCmd(text string) tea.Cmd {
	write := m.clipboard
	return func() tea.Msg {
		return clipboardMsg{err: write(text)}
	}
}

// handleKey routes amount characters to the focused field and everything
// else to commands.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The alert is shown once and any key dismisses it.
	if m.alert != "" {
		m.alert = ""
		return m, nil
	}

	if m.overlay != overlayNone {
		switch {
		case key.Matches(msg, m.keys.Copy) && m.overlay == overlayShare:
			m.overlay = overlayNone
			return m.copyAmounts()
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		m.overlay = overlayNone
		return m, nil
	}

	if isAmountInput(msg) {
		return m.edit(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.overlay = overlayHelp
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus((m.focus + 1) % len(m.inputs))
	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus((m.focus + len(m.inputs) - 1) % len(m.inputs))
	case key.Matches(msg, m.keys.Clear):
		m.inputs[m.focus].SetValue("")
		return m.afterEdit()
	case key.Matches(msg, m.keys.Refresh):
		return m.startRefresh()
	case key.Matches(msg, m.keys.Copy):
		return m.copyAmounts()
	case key.Matches(msg, m.keys.Share):
		m.overlay = overlayShare
		return m, nil
	case key.Matches(msg, m.keys.Logs):
		m.loadLogs()
		m.overlay = overlayLogs
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		return m, nil
	}

	// Editing keys (backspace, arrows, home/end, ctrl+u, ...).
	if msg.Type != tea.KeyRunes {
		return m.edit(msg)
	}
	return m, nil
}

// isAmountInput reports whether msg only carries characters that belong in
// an amount field. Pasted text is filtered later.
func isAmountInput(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return false
	}
	if msg.Paste {
		return true
	}
	for _, r := range msg.Runes {
		if !isAmountRune(r) {
			return false
		}
	}
	return true
}

func isAmountRune(r rune) bool {
	return (r >= '0' && r <= '9') || r == '.' || r == ','
}

func (m Model) edit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		kept := msg.Runes[:0:0]
		for _, r := range msg.Runes {
			if isAmountRune(r) {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			return m, nil
		}
		msg.Runes = kept
	}
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if m.inputs[m.focus].Value() == before {
		return m, cmd
	}
	next, editCmd := m.afterEdit()
	return next, tea.Batch(cmd, editCmd)
}

// afterEdit makes the focused field active and recomputes. Input that does
// not parse stays in the text input only; the active field and amounts keep
// their last good values.
func (m Model) afterEdit() (tea.Model, tea.Cmd) {
	field := convert.Fields[m.focus]
	candidate := m.amounts
	candidate.Set(field, m.inputs[m.focus].Value())
	if !m.snapshot.HasRates {
		// Held until rates arrive, then recomputed.
		m.active = field
		m.amounts = candidate
		return m, nil
	}
	m.apply(field, candidate)
	return m, nil
}

// recompute derives every field from the active one.
func (m *Model) recompute() {
	if !m.active.Valid() {
		return
	}
	m.apply(m.active, m.amounts)
}

// apply recomputes from active and commits the result. Without rates, or with
// input that does not parse, nothing changes and it reports false.
func (m *Model) apply(active convert.Field, amounts convert.AmountSet) bool {
	if !m.snapshot.HasRates {
		return false
	}
	res, err := convert.Recompute(active, amounts, m.snapshot.Rates)
	if err != nil {
		return false
	}
	m.active = active
	m.amounts = res.Amounts
	for i, f := range convert.Fields {
		in := &m.inputs[i]
		value := res.Amounts.Get(f)
		if in.Value() == value {
			continue
		}
		if i == m.focus {
			pos := caretAfterRegroup(in.Value(), in.Position(), value)
			in.SetValue(value)
			in.SetCursor(pos)
			continue
		}
		in.SetValue(value)
	}
	return true
}

// caretAfterRegroup maps a caret in old onto updated by counting the
// characters before it that are not grouping commas.
func caretAfterRegroup(old string, pos int, updated string) int {
	oldRunes := []rune(old)
	if pos > len(oldRunes) {
		pos = len(oldRunes)
	}
	want := 0
	for _, r := range oldRunes[:pos] {
		if r != ',' {
			want++
		}
	}
	seen := 0
	runes := []rune(updated)
	for i, r := range runes {
		if seen == want {
			return i
		}
		if r != ',' {
			seen++
		}
	}
	return len(runes)
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m Model) startRefresh() (tea.Model, tea.Cmd) {
	if m.refresher == nil || m.fetching {
		return m, nil
	}
	m.fetching = true
	return m, m.refreshCmd()
}

func (m Model) handleRates(msg ratesMsg) (tea.Model, tea.Cmd) {
	m.fetching = false
	if m.store != nil {
		m.snapshot = m.store.Snapshot()
	}
	if msg.err != nil {
		if errors.Is(msg.err, quote.ErrThrottled) {
			return m.setNotice("Rates were just updated", false)
		}
		m.alert = fmt.Sprintf("Could not fetch rates.\n\n%v", msg.err)
		return m, nil
	}
	if m.store == nil {
		m.snapshot.Rates = msg.rates
		m.snapshot.HasRates = true
		m.snapshot.LastError = nil
	}
	m.recompute()
	return m, nil
}

func (m Model) copyAmounts() (tea.Model, tea.Cmd) {
	return m, m.copyCmd(share.Text(m.amounts, m.active, m.baseURL))
}

func (m Model) setNotice(text string, isError bool) (tea.Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	m.noticeError = isError
	id := m.noticeID
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg(id)
	})
}

func (m *Model) loadLogs() {
	m.logLines = nil
	if m.logPath == "" {
		return
	}
	lines, err := logtail.Read(m.logPath, logLines)
	if err != nil {
		m.logLines = []string{err.Error()}
		return
	}
	for _, line := range lines {
		m.logLines = append(m.logLines, logtail.Parse(line).String())
	}
}
