package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/libyal/go-esedb"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	borderStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	maxRowsShown = 500
)

// pane identifies which half of the split view has focus.
type pane int

const (
	paneTables pane = iota
	paneRows
)

// tableItem adapts *esedb.Table to list.Item for the left-hand table list.
type tableItem struct{ t *esedb.Table }

func (i tableItem) Title() string { return i.t.Name() }
func (i tableItem) Description() string {
	return fmt.Sprintf("%d columns, %d indexes", len(i.t.Columns()), len(i.t.Indexes()))
}
func (i tableItem) FilterValue() string { return i.t.Name() }

// model is the top-level bubbletea model for esedbrowse.
type model struct {
	file *esedb.File
	path string

	tables   list.Model
	rows     viewport.Model
	focus    pane
	width    int
	height   int
	selected *esedb.Table
	err      error
}

func newModel(f *esedb.File, path string) model {
	items := make([]list.Item, 0, len(f.Tables()))
	for _, t := range f.Tables() {
		items = append(items, tableItem{t: t})
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Tables"
	l.SetShowHelp(false)

	return model{
		file:   f,
		path:   path,
		tables: l,
		rows:   viewport.New(0, 0),
		focus:  paneTables,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		leftWidth := m.width / 3
		m.tables.SetSize(leftWidth, m.height-2)
		m.rows.Width = m.width - leftWidth - 4
		m.rows.Height = m.height - 2
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			if m.focus == paneTables {
				m.focus = paneRows
			} else {
				m.focus = paneTables
			}
			return m, nil
		case "enter":
			if m.focus == paneTables {
				if item, ok := m.tables.SelectedItem().(tableItem); ok {
					m.selected = item.t
					m.rows.SetContent(m.renderRows(item.t))
					m.focus = paneRows
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == paneTables {
		m.tables, cmd = m.tables.Update(msg)
	} else {
		m.rows, cmd = m.rows.Update(msg)
	}
	return m, cmd
}

// renderRows decodes up to maxRowsShown records of t into a plain-text
// table, truncating past that bound with a one-line notice (a full interactive browser
// would page; esedbrowse trades that for simplicity).
func (m model) renderRows(t *esedb.Table) string {
	cols := t.Columns()
	var b strings.Builder

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	b.WriteString(headerStyle.Render(strings.Join(names, "  |  ")))
	b.WriteString("\n")

	it := t.Records()
	count := 0
	for it.Next() && count < maxRowsShown {
		rec, err := it.Record()
		if err != nil {
			fmt.Fprintf(&b, "<decode error: %v>\n", err)
			break
		}
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = cellSummary(rec, c)
		}
		b.WriteString(strings.Join(cells, "  |  "))
		b.WriteString("\n")
		count++
	}
	if err := it.Err(); err != nil {
		fmt.Fprintf(&b, "<iteration error: %v>\n", err)
	}
	if count == maxRowsShown {
		fmt.Fprintf(&b, "... truncated at %d rows\n", maxRowsShown)
	}
	return b.String()
}

func cellSummary(rec *esedb.Record, c esedb.Column) string {
	v, err := rec.Value(c.Identifier)
	if err != nil {
		return "<err>"
	}
	if v.Null {
		return "<null>"
	}
	if v.IsLongValue {
		return "<long value>"
	}
	if s, err := v.Text(); err == nil {
		return s
	}
	if id, err := v.GUID(); err == nil {
		return id.String()
	}
	return fmt.Sprintf("%x", v.Data)
}

func (m model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	title := titleStyle.Render(fmt.Sprintf("esedbrowse — %s", m.path))
	left := borderStyle.Render(m.tables.View())
	right := borderStyle.Render(m.rows.View())
	help := helpStyle.Render("tab: switch pane  enter: open table  q: quit")
	return title + "\n" + lipgloss.JoinHorizontal(lipgloss.Top, left, right) + "\n" + help
}
