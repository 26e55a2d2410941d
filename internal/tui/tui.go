// Package tui provides a Bubble Tea viewer for session reports and the
// approval queue of pending worklogs.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/autopilot/internal/engine"
	"github.com/fakeyudi/autopilot/internal/report"
)

var (
	accent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F2"}
	subtle = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}
	amber  = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#F6C177"}

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).PaddingLeft(1)
	pageOnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1)
	pageOffStyle = lipgloss.NewStyle().Foreground(subtle).Padding(0, 1)
	ruleStyle    = lipgloss.NewStyle().Foreground(subtle)
	footerStyle  = lipgloss.NewStyle().Foreground(subtle).PaddingLeft(1)

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(subtle)

	fieldStyle  = lipgloss.NewStyle().Foreground(accent)
	mutedStyle  = lipgloss.NewStyle().Foreground(subtle)
	spentStyle  = lipgloss.NewStyle().Foreground(amber)
	issueStyle  = lipgloss.NewStyle().Bold(true).Foreground(amber)
	okStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F85149"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
)

type page int

const (
	pageWorklogs page = iota
	pageIssues
	pageChunks
	pageSummary
	pageCount
)

func (p page) String() string {
	return [...]string{"Worklogs", "Issues", "Chunks", "Summary"}[p]
}

// chrome is the header, rule and footer rows around the viewport.
const chrome = 3

type mark int

const (
	undecided mark = iota
	approved
	rejected
)

// Model is the root Bubble Tea model. In approval mode the Worklogs tab is
// a selectable list; otherwise the model only displays the report.
type Model struct {
	report    *report.Report
	title     string
	approve   bool
	assign    string // issue given to approved unattributed worklogs
	page      page
	pages     [pageCount]viewport.Model
	width     int
	height    int
	ready     bool
	cursor    int
	marks     map[int]mark
	confirmed bool
}

// New creates a model for r. With approve set, worklogs can be marked and
// the marks confirmed with enter. assign is the issue key used when an
// unattributed worklog is approved; without it those can only be rejected.
func New(r *report.Report, title string, approve bool, assign string) Model {
	return Model{
		report:  r,
		title:   title,
		approve: approve,
		assign:  assign,
		marks:   make(map[int]mark),
	}
}

// Decisions returns the marks as engine decisions, or nil if the user quit
// without confirming.
func (m Model) Decisions() []engine.Decision {
	if !m.confirmed {
		return nil
	}
	var ds []engine.Decision
	for i := range m.report.Worklogs {
		switch m.marks[i] {
		case approved:
			d := engine.Decision{Index: i, Approve: true}
			if m.report.Worklogs[i].Issue == "" {
				d.Issue = m.assign
			}
			ds = append(ds, d)
		case rejected:
			ds = append(ds, engine.Decision{Index: i})
		}
	}
	return ds
}

// actionable reports whether the worklog at i can still be decided.
func (m Model) actionable(i int) bool {
	switch m.report.Worklogs[i].Status {
	case "pending", "unattributed", "failed":
		return true
	}
	return false
}

func (m Model) approvable(i int) bool {
	return m.actionable(i) && (m.report.Worklogs[i].Issue != "" || m.assign != "")
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "esc" || key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.approve && m.page == pageWorklogs {
			if used, done := m.handleApproval(key); used {
				m.refresh(pageWorklogs)
				if done {
					return m, tea.Quit
				}
				return m, nil
			}
		}
		switch {
		case key == "tab" || key == "right" || key == "l":
			m.page = (m.page + 1) % pageCount
			return m, nil
		case key == "shift+tab" || key == "left" || key == "h":
			m.page = (m.page + pageCount - 1) % pageCount
			return m, nil
		case len(key) == 1 && key[0] >= '1' && key[0] < '1'+byte(pageCount):
			m.page = page(key[0] - '1')
			return m, nil
		}
		if m.ready {
			var cmd tea.Cmd
			m.pages[m.page], cmd = m.pages[m.page].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// handleApproval applies an approval key. It reports whether the key was
// used and whether the program should exit.
func (m *Model) handleApproval(key string) (bool, bool) {
	n := len(m.report.Worklogs)
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "a":
		if n > 0 && m.approvable(m.cursor) {
			m.marks[m.cursor] = approved
		}
	case "x":
		if n > 0 && m.actionable(m.cursor) {
			m.marks[m.cursor] = rejected
		}
	case " ":
		delete(m.marks, m.cursor)
	case "A":
		for i := range m.report.Worklogs {
			if m.approvable(i) {
				m.marks[i] = approved
			}
		}
	case "enter":
		m.confirmed = true
		return true, true
	default:
		return false, false
	}
	return true, false
}

func (m Model) View() string {
	if !m.ready {
		return ""
	}

	tabs := make([]string, 0, pageCount)
	for p := page(0); p < pageCount; p++ {
		style := pageOffStyle
		if p == m.page {
			style = pageOnStyle
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%d %s", p+1, p)))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		headerStyle.Render("autopilot · "+m.title+"  "),
		lipgloss.JoinHorizontal(lipgloss.Center, tabs...))

	keys := "tab switch page · ↑↓ scroll · q quit"
	if m.approve && m.page == pageWorklogs {
		keys = "↑↓ move · a approve · x reject · space undo · A approve all · enter confirm · q cancel"
	}
	footer := footerStyle.Render(fmt.Sprintf("%s · %d%%", keys, int(m.pages[m.page].ScrollPercent()*100)))

	return strings.Join([]string{
		header,
		ruleStyle.Render(strings.Repeat("─", max(m.width, 1))),
		m.pages[m.page].View(),
		footer,
	}, "\n")
}

func (m *Model) layout() {
	for p := page(0); p < pageCount; p++ {
		vp := viewport.New(m.width, max(m.height-chrome, 1))
		vp.SetContent(m.render(p))
		m.pages[p] = vp
	}
}

func (m *Model) refresh(p page) {
	if m.ready {
		m.pages[p].SetContent(m.render(p))
	}
}

func (m *Model) render(p page) string {
	switch p {
	case pageWorklogs:
		return m.renderWorklogs()
	case pageIssues:
		return m.renderIssues()
	case pageChunks:
		return m.renderChunks()
	default:
		return m.renderSummary()
	}
}

func section(b *strings.Builder, title string, n int) bool {
	if n >= 0 {
		title = fmt.Sprintf("%s · %d", title, n)
	}
	b.WriteString(sectionStyle.Render(title) + "\n")
	if n == 0 {
		b.WriteString(mutedStyle.Render("nothing here yet") + "\n")
		return false
	}
	return true
}

func issueLabel(key string) string {
	if key == "" {
		return mutedStyle.Render("unattributed")
	}
	return issueStyle.Render(key)
}

func (m *Model) renderWorklogs() string {
	var b strings.Builder
	if !section(&b, "Worklogs", len(m.report.Worklogs)) {
		return b.String()
	}
	for i, w := range m.report.Worklogs {
		mark := " "
		if m.approve {
			switch m.marks[i] {
			case approved:
				mark = okStyle.Render("✓")
			case rejected:
				mark = warnStyle.Render("✗")
			default:
				mark = mutedStyle.Render("·")
			}
		}
		spent := report.FormatSeconds(w.Seconds)
		if w.Capped {
			spent += " (capped)"
		}
		line := fmt.Sprintf("%s %s %s %s %s", mark, issueLabel(w.Issue), spentStyle.Render(spent),
			mutedStyle.Render("["+w.Status+"]"), w.Summary)
		if m.approve && i == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line + "\n")
		for _, f := range w.Files {
			b.WriteString(mutedStyle.Render("    "+f) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderIssues() string {
	var b strings.Builder
	if !section(&b, "Issues", len(m.report.Issues)) {
		return b.String()
	}
	for _, is := range m.report.Issues {
		line := issueLabel(is.Key) + " " + spentStyle.Render(report.FormatSeconds(is.LoggedSeconds))
		if is.Paused {
			line += mutedStyle.Render(" paused")
		}
		if is.Summary != "" {
			line += " " + is.Summary
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) renderChunks() string {
	var b strings.Builder
	if !section(&b, "Chunks", len(m.report.Chunks)) {
		return b.String()
	}
	for _, c := range m.report.Chunks {
		span := fmt.Sprintf("%s to %s", c.Start.Local().Format("15:04"), c.End.Local().Format("15:04"))
		line := fmt.Sprintf("%s %s %s", mutedStyle.Render(span), issueLabel(c.Issue), spentStyle.Render(report.FormatSeconds(c.Seconds)))
		if c.NeedsAttribution {
			line += warnStyle.Render(" needs attribution")
		}
		b.WriteString(line + "\n")
		if len(c.Files) > 0 {
			b.WriteString(mutedStyle.Render("    "+strings.Join(c.Files, " ")) + "\n")
		}
	}
	return b.String()
}

func (m *Model) renderSummary() string {
	s := m.report.Session
	var b strings.Builder
	section(&b, "Session Summary", -1)

	field := func(name, value string) {
		b.WriteString(fieldStyle.Render(fmt.Sprintf("%-13s", name)) + value + "\n")
	}
	field("id", s.ID)
	if !s.StartTime.IsZero() {
		field("started", s.StartTime.Local().Format(time.DateTime))
	}
	if !s.ArchivedAt.IsZero() {
		field("ended", s.ArchivedAt.Local().Format(time.DateTime))
	}
	if s.Duration != "" {
		field("duration", s.Duration)
	}
	field("autonomy", s.Autonomy)
	field("accuracy", strconv.Itoa(s.Accuracy))
	field("tracked", report.FormatSeconds(s.TrackedSeconds))
	field("unattributed", report.FormatSeconds(s.UnattributedSeconds))
	return b.String()
}

// Run shows r read-only.
func Run(r *report.Report, title string) error {
	_, err := tea.NewProgram(New(r, title, false, ""), tea.WithAltScreen()).Run()
	return err
}

// RunApproval shows the approval queue and returns the confirmed decisions.
func RunApproval(r *report.Report, title, assign string) ([]engine.Decision, error) {
	final, err := tea.NewProgram(New(r, title, true, assign), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	if m, ok := final.(Model); ok {
		return m.Decisions(), nil
	}
	return nil, nil
}
