package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/satsrate/internal/convert"
	"github.com/five82/satsrate/internal/share"
	"github.com/five82/satsrate/internal/state"
)

// renderMain renders the converter: header, the five fields and the command
// bar.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderFields())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	logo := styles.Logo.Render("₿ satsrate")

	var status string
	snap := m.snapshot
	freshness := snap.Freshness(m.now())
	switch {
	case snap.HasRates:
		rates := snap.Rates
		status = styles.Text.Render(fmt.Sprintf("1 BTC = ¥%s  $%s  €%s",
			convert.Format(rates.JPY, 0), convert.Format(rates.USD, 2), convert.Format(rates.EUR, 2)))
		updated := "Updated " + convert.FormatTimestamp(rates.FetchedAt)
		if freshness == state.FreshnessOutdated {
			updated += " (outdated, press r)"
		}
		status += "  " + styles.FreshnessStyle(freshness).Render(updated)
	case m.fetching:
		status = styles.FaintText.Render("Fetching rates")
	default:
		status = styles.FaintText.Render("No rates yet, press r to fetch")
	}
	if m.fetching && snap.HasRates {
		status += "  " + styles.InfoText.Render("updating")
	}

	header := logo + "  " + status
	if m.width > 0 {
		return styles.Header.Width(m.width).Render(header)
	}
	return styles.Header.Render(header)
}

func (m Model) renderFields() string {
	styles := m.theme.Styles()
	rows := make([]string, 0, len(convert.Fields))
	for i, f := range convert.Fields {
		label := fmt.Sprintf("%s %-4s", f.Symbol(), f.Label())
		if f == m.active {
			label = styles.Selected.Render(label)
		} else {
			label = styles.MutedText.Padding(0, 1).Render(label)
		}
		row := lipgloss.JoinHorizontal(lipgloss.Center, label, "  ", m.inputs[i].View())
		style := styles.Row
		if i == m.focus {
			style = styles.FocusedRow
		}
		rows = append(rows, style.Width(44).Render(row))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()
	parts := make([]string, 0, len(m.keys.ShortHelp()))
	for _, binding := range m.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, styles.Key.Render(h.Key)+" "+styles.MutedText.Render(h.Desc))
	}
	bar := strings.Join(parts, "  ")
	if m.notice != "" {
		notice := styles.SuccessText.Render(m.notice)
		if m.noticeError {
			notice = styles.DangerText.Render(m.notice)
		}
		bar += "  " + notice
	}
	return styles.Footer.Render(bar)
}

func (m Model) renderAlert() string {
	styles := m.theme.Styles()
	content := styles.DangerText.Render("Rate update failed") + "\n\n" +
		styles.Text.Render(m.alert) + "\n\n" +
		styles.FaintText.Render("Previous rates are kept. Press any key, then r to retry.")
	return m.place(styles.AlertModal.Width(56).Render(content))
}

func (m Model) renderShare() string {
	styles := m.theme.Styles()
	targets := share.Links(m.baseURL, m.amounts, m.active)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Share"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(share.Body(m.amounts)))
	b.WriteString("\n\n")
	for _, row := range []struct{ name, url string }{
		{"Link", share.Link(m.baseURL, m.amounts, m.active)},
		{"X", targets.Twitter},
		{"Nostter", targets.Nostter},
		{"Mass Driver", targets.MassDriver},
	} {
		b.WriteString(styles.AccentText.Bold(true).Render(row.name))
		b.WriteString("\n")
		b.WriteString(styles.InfoText.Render(row.url))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("c copy text  any other key closes"))

	width := 72
	if m.width > 8 && m.width-8 < width {
		width = m.width - 8
	}
	return m.place(styles.Modal.Width(width).Render(b.String()))
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	lines := m.logLines
	maxLines := m.height - 6
	if maxLines < 1 {
		maxLines = 1
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	body := styles.FaintText.Render("Log is empty")
	if len(lines) > 0 {
		body = styles.Text.Render(strings.Join(lines, "\n"))
	}
	title := styles.Text.Bold(true).Render("Log")
	if m.logPath != "" {
		title += "  " + styles.FaintText.Render(m.logPath)
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	return m.place(styles.Modal.Padding(0, 1).Width(width).Render(title + "\n\n" + body))
}
