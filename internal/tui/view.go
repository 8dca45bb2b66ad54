package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/zettel/internal/workspace"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.modal != modalNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.viewModal())
	}

	left := m.paneStyle(workspace.FocusList).
		Width(listWidth).
		Height(max(m.height-5, 3)).
		Render(m.viewList())

	right := m.paneStyle(workspace.FocusBody).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			m.viewTitle(),
			m.viewBody(),
		))

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, main, m.viewFooter()))
}

func (m Model) paneStyle(f workspace.Focus) lipgloss.Style {
	focused := m.ws.Focus() == f
	if f == workspace.FocusBody {
		focused = focused || m.ws.Focus() == workspace.FocusTitle
	}
	if focused {
		return focusedPaneStyle
	}
	return paneStyle
}

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(m.search.View())
	b.WriteString("\n\n")
	if len(m.titles) == 0 {
		b.WriteString(itemStyle.Render("no notes, ^n to create"))
		return b.String()
	}
	for i, t := range m.titles {
		label := t
		if r := []rune(label); len(r) > listWidth-3 {
			label = string(r[:listWidth-4]) + "…"
		}
		prefix := "  "
		if t == m.ws.Current() {
			prefix = currentMarkStyle.Render("• ")
		}
		switch {
		case i == m.cursor && m.ws.Focus() == workspace.FocusList:
			label = selectedItemStyle.Render(label)
		case m.ws.Highlighted(t):
			label = highlightStyle.Render(label)
		default:
			label = itemStyle.Render(label)
		}
		b.WriteString(prefix + label + "\n")
	}
	return b.String()
}

func (m Model) viewTitle() string {
	return titleStyle.Render(m.title.View())
}

func (m Model) viewBody() string {
	if m.ws.Mode() == workspace.ModePreview {
		return m.preview.View()
	}
	return m.body.View()
}

func (m Model) viewFooter() string {
	mode := modeStyle.Render(strings.ToUpper(m.ws.Mode().String()))
	status := statusStyle.Render(" " + m.ws.Status())
	if m.mark >= 0 {
		status += statusStyle.Render(" [mark set]")
	}
	keys := m.keys.shortHelp()
	if m.ws.Mode() == workspace.ModeEdit && m.ws.Focus() == workspace.FocusBody {
		keys = append(m.keys.editHelp(), m.keys.save, m.keys.toggle, m.keys.focus)
	}
	return mode + status + "\n" + m.help.ShortHelpView(keys)
}

func (m Model) viewModal() string {
	switch m.modal {
	case modalError:
		return errorModalStyle.Render(fmt.Sprintf("%s\n\n%s\n\n%s",
			titleStyle.Render(m.errTitle), m.errText, itemStyle.Render("press any key")))
	case modalConfirmDelete:
		return modalStyle.Render(fmt.Sprintf("Delete note '%s'?\n\n%s", m.pending, itemStyle.Render("y / n")))
	case modalPicker:
		return modalStyle.Render(titleStyle.Render("Insert image") + "\n" +
			itemStyle.Render(m.picker.CurrentDirectory) + "\n\n" + m.picker.View())
	default:
		return modalStyle.Render(m.prompt.View() + "\n\n" + itemStyle.Render("enter to confirm, esc to cancel"))
	}
}

// drawPreview writes the preview rows into the viewport, marking the row
// under the cursor and keeping it visible.
func (m *Model) drawPreview() {
	if len(m.rows) == 0 {
		m.preview.SetContent(itemStyle.Render("(empty)"))
		return
	}
	if m.row >= len(m.rows) {
		m.row = len(m.rows) - 1
	}
	lines := make([]string, len(m.rows))
	for i, r := range m.rows {
		marker := "  "
		if i == m.row {
			marker = lineCursorStyle.Render("▸ ")
		}
		lines[i] = marker + r.text
	}
	m.preview.SetContent(strings.Join(lines, "\n"))
	switch {
	case m.row < m.preview.YOffset:
		m.preview.SetYOffset(m.row)
	case m.row >= m.preview.YOffset+m.preview.Height:
		m.preview.SetYOffset(m.row - m.preview.Height + 1)
	}
}
