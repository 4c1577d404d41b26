package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joescharf/fixxy/internal/models"
)

const (
	sidebarWidth  = 34
	inputHeight   = 5
	minTranscript = 3
)

// layout resizes the components to the window.
func (m *Model) layout() {
	if m.width == 0 {
		return
	}
	mainWidth := m.width
	if m.sidebar {
		mainWidth -= sidebarWidth
	}
	m.help.Width = m.width
	m.input.SetWidth(max(mainWidth-2, 10))
	m.input.SetHeight(inputHeight)
	m.search.Width = sidebarWidth - 8

	// header, input box, button row, help
	chrome := 1 + (inputHeight + 2) + 1 + 1
	m.transcript.Width = max(mainWidth-4, 10)
	m.transcript.Height = max(m.height-chrome-2, minTranscript)
}

// refreshTranscript re-renders the displayed task's transcript into the
// viewport and scrolls to the newest entry.
func (m *Model) refreshTranscript() {
	view := m.ctrl.View()
	width := max(m.transcript.Width, 10)
	body := lipgloss.NewStyle().Width(width)

	var b strings.Builder
	for i, msg := range view.Session.Transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		text := msg.Text
		if m.typing != nil && m.typing.msgID == msg.ID {
			text = m.typing.tw.Prefix()
		}
		b.WriteString(m.speaker(msg))
		b.WriteString("\n")
		b.WriteString(body.Render(text))
	}
	if len(view.Session.Transcript) == 0 {
		b.WriteString(m.theme.Muted.Render(fmt.Sprintf("No %s messages yet.", view.Task)))
	}

	m.transcript.SetContent(b.String())
	m.transcript.GotoBottom()
}

func (m Model) speaker(msg models.Message) string {
	switch {
	case msg.Origin == models.OriginUser:
		label := "You"
		if msg.Language.Valid() {
			label += " · " + msg.Language.String()
		}
		return m.theme.User.Render(label)
	case msg.Failed:
		return m.theme.Failed.Render("Fixxy")
	default:
		return m.theme.Bot.Render("Fixxy")
	}
}

// View renders the whole screen.
func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}
	if m.info {
		box := m.theme.Transcript.Padding(1, 4).Render(
			m.theme.Title.Render(InfoText) + "\n\n" + m.theme.Muted.Render("press any key"),
		)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Transcript.Render(m.transcript.View()),
		m.theme.Input.Render(m.input.View()),
		m.buttonRow(),
	)
	body := main
	if m.sidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebarView(), main)
	}

	return m.theme.App.Render(lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		body,
		m.help.View(m.keys),
	))
}

func (m Model) header() string {
	view := m.ctrl.View()
	tabs := make([]string, 0, models.TaskModeCount)
	for _, mode := range models.TaskModes() {
		label := " " + mode.String() + " "
		if mode == view.Task {
			tabs = append(tabs, m.theme.SelectedItem.Render(label))
		} else {
			tabs = append(tabs, m.theme.Item.Render(label))
		}
	}
	return m.theme.Header.Render(fmt.Sprintf("%s  %s  %s  %s",
		m.theme.Title.Render("IE-Fixxy"),
		strings.Join(tabs, " "),
		m.theme.Muted.Render("Language: ")+view.Language.String(),
		m.theme.Muted.Render("[f2] "+m.theme.ToggleLabel()),
	))
}

func (m Model) buttonRow() string {
	send := m.theme.Button.Render("Send")
	if m.ctrl.View().Busy() {
		send = m.theme.ButtonBusy.Render("Loading...")
	}
	row := send
	if m.notice != "" {
		row += "  " + m.theme.Notice.Render(m.notice)
	}
	return row
}

func (m Model) sidebarView() string {
	var b strings.Builder

	for i, set := range m.sets {
		if i > 0 {
			b.WriteString(" ")
		}
		if i == m.setIdx {
			b.WriteString(m.theme.SelectedItem.Render(set.Name))
		} else {
			b.WriteString(m.theme.Item.Render(set.Name))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	visible := m.filtered()
	rows := max(m.height-10, 3)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(visible) && i < start+rows; i++ {
		line := truncate(visible[i], sidebarWidth-6)
		if m.focus == focusList && i == m.cursor {
			b.WriteString(m.theme.SelectedItem.Render("> " + line))
		} else {
			b.WriteString(m.theme.Item.Render("  " + line))
		}
		b.WriteString("\n")
	}
	if len(visible) == 0 {
		b.WriteString(m.theme.Muted.Render("  no matching questions"))
	}

	title := m.theme.SidebarTitle.Render("Problem sets")
	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Render(title + "\n" + b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
