package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/flowmodel/pkg/editor"
	"github.com/matzehuels/flowmodel/pkg/errors"
	"github.com/matzehuels/flowmodel/pkg/model"
	"github.com/matzehuels/flowmodel/pkg/selection"
)

// nudge is the distance one key press moves the selection.
const nudge = 10

var (
	editCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	editDimStyle    = lipgloss.NewStyle().Foreground(colorFaint)
	editErrorStyle  = lipgloss.NewStyle().Foreground(colorFail)
)

// keyActions maps keys to editor actions and their options.
var keyActions = map[string]struct {
	action string
	opts   editor.ActionOptions
}{
	"H":      {editor.ActionMoveSelection, editor.ActionOptions{"dx": float64(-nudge)}},
	"L":      {editor.ActionMoveSelection, editor.ActionOptions{"dx": float64(nudge)}},
	"K":      {editor.ActionMoveSelection, editor.ActionOptions{"dy": float64(-nudge)}},
	"J":      {editor.ActionMoveSelection, editor.ActionOptions{"dy": float64(nudge)}},
	"u":      {editor.ActionUndo, nil},
	"ctrl+r": {editor.ActionRedo, nil},
	"c":      {editor.ActionCopy, nil},
	"v":      {editor.ActionPaste, editor.ActionOptions{"dx": float64(2 * nudge), "dy": float64(2 * nudge)}},
	"x":      {editor.ActionRemoveSelection, nil},
	"delete": {editor.ActionRemoveSelection, nil},
	"a":      {editor.ActionSelectElements, nil},
	"t":      {editor.ActionAlignElements, editor.ActionOptions{"type": "top"}},
	"=":      {editor.ActionDistributeElements, editor.ActionOptions{"axis": "horizontal"}},
	"0":      {editor.ActionMoveToOrigin, nil},
}

// =============================================================================
// EditModel - Interactive diagram editing
// =============================================================================

// EditModel is the bubbletea model of the terminal editor. It lists the
// diagram's elements, keeps a cursor and drives the editor's actions.
type EditModel struct {
	ed   *editor.Editor
	acts *editor.Actions
	sel  *selection.Selection
	save func() error

	rows   []*model.Element
	Cursor int
	Offset int
	Height int

	status string
	err    error
	saved  int
}

// NewEditModel creates an edit model over ed. save writes the diagram back.
func NewEditModel(ed *editor.Editor, save func() error) (*EditModel, error) {
	acts, err := editor.Service[*editor.Actions](ed, editor.ServiceEditorActions)
	if err != nil {
		return nil, err
	}
	sel, err := editor.Service[*selection.Selection](ed, editor.ServiceSelection)
	if err != nil {
		return nil, err
	}
	m := &EditModel{ed: ed, acts: acts, sel: sel, save: save, Height: 15}
	m.refresh()
	return m, nil
}

// refresh rereads the element rows after a change.
func (m *EditModel) refresh() {
	m.rows = m.rows[:0]
	for el := range m.ed.Registry().All() {
		if el.Kind != model.KindRoot {
			m.rows = append(m.rows, el)
		}
	}
	if m.Cursor >= len(m.rows) {
		m.Cursor = max(len(m.rows)-1, 0)
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
}

// Dirty reports whether the history moved since the last save.
func (m *EditModel) Dirty() bool {
	return m.position() != m.saved
}

func (m *EditModel) position() int {
	n := 0
	for _, e := range m.ed.Stack().Entries() {
		if !e.Undone {
			n++
		}
	}
	return n
}

func (m *EditModel) Init() tea.Cmd {
	return nil
}

func (m *EditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		m.err = nil
		switch key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ":
			m.toggle()
		case "esc":
			m.err = m.sel.Clear()
		case "ctrl+s", "s":
			m.write()
		default:
			if ka, ok := keyActions[key]; ok {
				m.trigger(ka.action, ka.opts)
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m *EditModel) toggle() {
	if len(m.rows) == 0 {
		return
	}
	id := m.rows[m.Cursor].ID
	if m.sel.IsSelected(id) {
		m.err = m.sel.Deselect(id)
	} else {
		m.err = m.sel.Select([]string{id}, true)
	}
}

func (m *EditModel) trigger(name string, opts editor.ActionOptions) {
	// Actions without a selection fall back to the element under the cursor.
	if len(m.sel.Get()) == 0 && len(m.rows) > 0 && name != editor.ActionSelectElements {
		_ = m.sel.Select([]string{m.rows[m.Cursor].ID}, false)
	}
	if _, err := m.acts.Trigger(name, opts); err != nil {
		m.err = err
		return
	}
	m.status = name
	m.refresh()
}

func (m *EditModel) write() {
	if err := m.save(); err != nil {
		m.err = err
		return
	}
	m.saved = m.position()
	m.status = "saved"
}

func (m *EditModel) View() string {
	var b strings.Builder

	title := m.ed.Diagram()
	if m.Dirty() {
		title += " *"
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(editDimStyle.Render("↑/↓ move  space select  H/J/K/L nudge  u/ctrl+r undo/redo  c/v copy/paste  x delete  s save  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		el := m.rows[i]
		cursor, check := " ", " "
		if i == m.Cursor {
			cursor = "▸"
		}
		if m.sel.IsSelected(el.ID) {
			check = "●"
		}
		rows = append(rows, []string{cursor + check, el.ID, el.Type, el.Name(), describeGeometry(el)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("", "ID", "Type", "Name", "Geometry").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			if m.Offset+row == m.Cursor {
				return editCursorStyle
			}
			return StyleValue
		})
	b.WriteString(t.Render())
	b.WriteString("\n")

	b.WriteString(editDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(m.rows), statsOf(m.ed.Registry()))))
	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(markError.style.Render(markError.icon) + " " + editErrorStyle.Render(errors.UserMessage(m.err)))
	case m.status != "":
		b.WriteString(markSuccess.style.Render(markSuccess.icon) + " " + m.status)
	}
	b.WriteString("\n")
	return b.String()
}
