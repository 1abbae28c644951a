package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/meibo/pkg/errors"
	"github.com/matzehuels/meibo/pkg/layout"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// LayoutListModel - Interactive layout selection
// =============================================================================

// LayoutListModel is the bubbletea model for choosing one layout of a
// multi-layout file.
type LayoutListModel struct {
	Layouts  []*layout.LayFile
	Cursor   int
	Selected *layout.LayFile
	Height   int
	Offset   int
}

// NewLayoutListModel creates a new layout list model.
func NewLayoutListModel(layouts []*layout.LayFile) LayoutListModel {
	return LayoutListModel{
		Layouts: layouts,
		Height:  15,
	}
}

func (m LayoutListModel) Init() tea.Cmd {
	return nil
}

func (m LayoutListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Layouts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Layouts) == 0 {
				return m, nil
			}
			m.Selected = m.Layouts[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(5, msg.Height-6)
	}
	return m, nil
}

func (m LayoutListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Layouts))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		l := m.Layouts[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rosters := "—"
		if rs := l.Rosters(); len(rs) > 0 {
			rosters = rs[0].Roster.RefName
		}
		rows = append(rows, []string{
			cursor,
			fmt.Sprint(i + 1),
			l.Title,
			fmt.Sprintf("%.0fx%.0fmm", float64(l.PageWidth)*l.UnitMM(), float64(l.PageHeight)*l.UnitMM()),
			fmt.Sprint(l.Count(layout.KindField)),
			rosters,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Title", "Size", "Fields", "Roster").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col == 1 || col == 3 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Layouts))))

	return b.String()
}

// pickLayout runs the layout picker on the terminal. Quitting without a
// choice is an INVALID_INPUT error.
func pickLayout(layouts []*layout.LayFile) (*layout.LayFile, error) {
	final, err := tea.NewProgram(NewLayoutListModel(layouts), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "layout picker")
	}
	m, ok := final.(LayoutListModel)
	if !ok || m.Selected == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no layout selected")
	}
	return m.Selected, nil
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
