package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/mlefebre/askdesk/internal/chat"
)

func (m *model) View() string {
	m.refreshTranscriptIfDirty()
	parts := []string{
		m.heroView(),
		m.viewport.View(),
		m.statusLine(),
		m.composerPanel(),
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.busy() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	if m.helpVisible {
		parts = append(parts, m.helpView())
	}
	return joinNonEmpty(parts)
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("AskDesk"),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) statusLine() string {
	stats := []string{
		fmt.Sprintf("Messages %d", len(m.config.Coordinator.Messages())),
		fmt.Sprintf("Answers %d", len(m.feedbackTargets())),
	}
	switch {
	case m.config.Coordinator.Sending() && m.config.Coordinator.Uploading():
		stats = append(stats, "chat & upload in flight")
	case m.config.Coordinator.Sending():
		stats = append(stats, "chat in flight")
	case m.config.Coordinator.Uploading():
		stats = append(stats, "upload in flight")
	case m.downloading:
		stats = append(stats, "downloading")
	default:
		stats = append(stats, "idle")
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) composerPanel() string {
	label := "Composer"
	switch m.composerMode {
	case composerModeFile:
		label = "Upload Questionnaire"
	case composerModeFeedback:
		label = "Correct This Answer"
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render(label),
		m.composer.View(),
	})
}

func (m *model) helpView() string {
	lines := []string{
		sectionHeaderStyle.Render("Keys"),
		helperStyle.Render("• Enter sends the composer content; Esc leaves upload/feedback modes."),
		helperStyle.Render("• Ctrl+U prompts for a questionnaire path (.xlsx, .xls, .csv)."),
		helperStyle.Render("• ↑/↓ select an answer; Ctrl+F opens or closes its feedback form."),
		helperStyle.Render("• Ctrl+D downloads the compiled responses workbook."),
		helperStyle.Render("• Ctrl+G toggles this help; Ctrl+C quits."),
	}
	return helpBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) refreshTranscriptIfDirty() {
	if !m.transcriptDirty {
		return
	}
	m.transcriptDirty = false
	m.viewport.SetContent(m.buildTranscript())
}

// buildTranscript projects the conversation log plus feedback visibility into
// the viewport. It holds no state of its own.
func (m *model) buildTranscript() string {
	selected := ""
	if target, ok := m.selectedTarget(); ok {
		selected = target.ID
	}

	var b strings.Builder
	for i, message := range m.config.Coordinator.Messages() {
		if i > 0 {
			b.WriteString("\n")
		}
		switch message.Kind {
		case chat.KindQABatch:
			m.writeBatch(&b, message, selected)
		case chat.KindDownloadPrompt:
			b.WriteString(downloadPromptStyle.Render(" ⇩ " + "Press Ctrl+D to download the compiled responses."))
			b.WriteString("\n")
		default:
			m.writePlain(&b, message, selected)
		}
	}
	return b.String()
}

func (m *model) writePlain(b *strings.Builder, message chat.Message, selected string) {
	speaker := assistantLabelStyle.Render("AskDesk")
	if message.Origin == chat.OriginUser {
		speaker = userLabelStyle.Render("You")
	}
	marker := "  "
	if message.ID != "" && message.ID == selected {
		marker = selectionMarkerStyle.Render("> ")
	}
	b.WriteString(marker + speaker + "  " + wordwrap.String(message.Text, m.wrapWidth(10)))
	b.WriteString("\n")
	m.writeFeedbackState(b, message.ID)
}

func (m *model) writeBatch(b *strings.Builder, message chat.Message, selected string) {
	b.WriteString("  " + sectionHeaderStyle.Render("Processed Questions"))
	b.WriteString("\n")
	for i, item := range message.QAItems {
		marker := "  "
		if item.ID == selected {
			marker = selectionMarkerStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf(" %s%d) Q: %s\n", marker, i+1, wordwrap.String(item.Question, m.wrapWidth(8))))
		b.WriteString("      A: " + wordwrap.String(item.Answer, m.wrapWidth(9)))
		b.WriteString("\n")
		b.WriteString(helperStyle.Render("      source: " + item.Source))
		b.WriteString("\n")
		m.writeFeedbackState(b, item.ID)
	}
}

func (m *model) writeFeedbackState(b *strings.Builder, id string) {
	if id == "" || !m.config.Coordinator.FeedbackVisible(id) {
		return
	}
	b.WriteString(feedbackOpenStyle.Render("      ✎ feedback form open: edit below and press Enter"))
	b.WriteString("\n")
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

var (
	titleStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	taglineStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Italic(true)
	sectionHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	helperStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userLabelStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))
	assistantLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectionMarkerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	downloadPromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	feedbackOpenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb347")).Italic(true)
	statusBarStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	helpBoxStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
)
