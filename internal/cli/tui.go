package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// =============================================================================
// TypeBrowserModel - Interactive node type browser
// =============================================================================

// TypeBrowserModel is the bubbletea model behind `types browse`. Typing
// narrows the list; enter selects the highlighted type.
type TypeBrowserModel struct {
	All      []*nodedef.Definition
	Visible  []*nodedef.Definition
	Filter   string
	Cursor   int
	Offset   int
	Height   int
	Selected *nodedef.Definition
}

// NewTypeBrowserModel creates a browser over defs.
func NewTypeBrowserModel(defs []*nodedef.Definition) TypeBrowserModel {
	return TypeBrowserModel{All: defs, Visible: defs, Height: 12}
}

func (m TypeBrowserModel) Init() tea.Cmd {
	return nil
}

func (m TypeBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyUp:
			m.move(-1)
		case tea.KeyDown:
			m.move(1)
		case tea.KeyEnter:
			if len(m.Visible) > 0 {
				m.Selected = m.Visible[m.Cursor]
				return m, tea.Quit
			}
		case tea.KeyBackspace:
			if m.Filter != "" {
				m.Filter = m.Filter[:len(m.Filter)-1]
				m.refilter()
			}
		case tea.KeyRunes, tea.KeySpace:
			m.Filter += string(msg.Runes)
			m.refilter()
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 3)
	}
	return m, nil
}

func (m *TypeBrowserModel) move(delta int) {
	m.Cursor = min(max(m.Cursor+delta, 0), max(len(m.Visible)-1, 0))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *TypeBrowserModel) refilter() {
	q := strings.ToLower(m.Filter)
	m.Visible = m.Visible[:0:0]
	for _, d := range m.All {
		if q == "" || strings.Contains(strings.ToLower(d.TypeID), q) ||
			strings.Contains(strings.ToLower(d.DisplayName), q) {
			m.Visible = append(m.Visible, d)
		}
	}
	m.Cursor, m.Offset = 0, 0
}

func (m TypeBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Node Types"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("type to filter  ↑/↓ navigate  ⏎ select  esc quit"))
	b.WriteString("\n")
	b.WriteString(StyleHighlight.Render("/ " + m.Filter))
	b.WriteString("\n\n")

	if len(m.Visible) == 0 {
		b.WriteString(listDimStyle.Render("  no matches"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Visible))
	b.WriteString(typeTable(m.Visible[m.Offset:end], m.Cursor-m.Offset))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Visible))))

	return b.String()
}
