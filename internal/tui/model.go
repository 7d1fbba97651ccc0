package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlefebre/askdesk/internal/chat"
	"github.com/mlefebre/askdesk/internal/session"
)

const heroTagline = "Chat with your questionnaire assistant."

const (
	minViewportWidth          = 40
	viewportHorizontalPadding = 4
)

// Config wires runtime collaborators into the TUI program.
type Config struct {
	Coordinator  *session.Coordinator
	DownloadsDir string
}

type composerMode int

const (
	composerModeChat composerMode = iota
	composerModeFile
	composerModeFeedback
)

const (
	composerChatPlaceholder     = "Ask a question…"
	composerFilePlaceholder     = "Path to a .xlsx, .xls or .csv questionnaire…"
	composerFeedbackPlaceholder = "Type the corrected answer…"
)

// feedbackTarget references one transcript entry that can receive feedback.
type feedbackTarget struct {
	ID       string
	Question string
	Answer   string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	composer := textinput.New()
	composer.Placeholder = composerChatPlaceholder
	composer.CharLimit = 500
	composer.Width = 70
	composer.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	return &model{
		config:          config,
		composer:        composer,
		spinner:         spin,
		viewport:        vp,
		selection:       -1,
		transcriptDirty: true,
		infoMessage:     "Press Enter to send, Ctrl+U to upload a questionnaire, Ctrl+G for help.",
	}
}

type model struct {
	config Config

	composer textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	composerMode   composerMode
	feedbackTarget string
	selection      int

	downloading     bool
	transcriptDirty bool
	infoMessage     string
	errorMessage    string
	helpVisible     bool
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			m.markTranscriptDirty()
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case chatResultMsg:
		m.config.Coordinator.FinishSend(msg.question, msg.reply, msg.err)
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		} else {
			m.errorMessage = ""
			m.infoMessage = "Answer received."
		}
		m.markTranscriptDirty()
		m.scrollToLatest()
		return m, nil
	case uploadResultMsg:
		m.config.Coordinator.FinishUpload(msg.result, msg.err)
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		} else {
			m.errorMessage = ""
			m.infoMessage = "Questionnaire processed. Move with ↑/↓ and press Ctrl+F to correct an answer."
		}
		m.markTranscriptDirty()
		m.scrollToLatest()
		return m, nil
	case feedbackResultMsg:
		m.config.Coordinator.FinishFeedback(msg.itemID, msg.err)
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Feedback failed. The form stays open so you can retry."
		} else {
			m.errorMessage = ""
			m.infoMessage = "Feedback submitted. Thank you!"
			m.resetComposer(composerModeChat)
		}
		m.markTranscriptDirty()
		return m, nil
	case downloadResultMsg:
		m.downloading = false
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		} else {
			m.errorMessage = ""
			m.infoMessage = "Saved responses to " + msg.path
		}
		m.markTranscriptDirty()
		return m, nil
	case tea.WindowSizeMsg:
		newWidth := msg.Width - viewportHorizontalPadding
		if newWidth < minViewportWidth {
			newWidth = minViewportWidth
		}
		m.viewport.Width = newWidth
		height := msg.Height - 8
		if height < 5 {
			height = 5
		}
		m.viewport.Height = height
		m.markTranscriptDirty()
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		if m.composerMode != composerModeChat {
			if m.composerMode == composerModeFeedback && m.feedbackTarget != "" {
				m.config.Coordinator.HideFeedbackForm(m.feedbackTarget)
			}
			m.resetComposer(composerModeChat)
			m.infoMessage = "Back to chat."
			m.markTranscriptDirty()
			return m, nil
		}
		if m.helpVisible {
			m.helpVisible = false
			return m, nil
		}
		return m, tea.Quit
	case tea.KeyCtrlU:
		if m.config.Coordinator.Uploading() {
			m.infoMessage = "An upload is already running."
			return m, nil
		}
		m.resetComposer(composerModeFile)
		m.infoMessage = "Enter the questionnaire path and press Enter."
		return m, nil
	case tea.KeyCtrlF:
		return m.beginFeedbackEntry()
	case tea.KeyCtrlD:
		return m.startDownload()
	case tea.KeyCtrlG:
		m.helpVisible = !m.helpVisible
		return m, nil
	case tea.KeyUp:
		m.moveSelection(-1)
		return m, nil
	case tea.KeyDown:
		m.moveSelection(1)
		return m, nil
	case tea.KeyEnter:
		return m.submitComposer()
	}

	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(key)
	return m, cmd
}

// submitComposer dispatches the composer content according to its mode.
func (m *model) submitComposer() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.composer.Value())
	switch m.composerMode {
	case composerModeChat:
		return m.submitChat(value)
	case composerModeFile:
		return m.submitUpload(value)
	case composerModeFeedback:
		return m.submitFeedback(value)
	}
	return m, nil
}

func (m *model) submitChat(value string) (tea.Model, tea.Cmd) {
	if m.config.Coordinator.Sending() {
		m.infoMessage = "Still waiting for the previous answer…"
		return m, nil
	}
	question, ok := m.config.Coordinator.BeginSend(value)
	if !ok {
		return m, nil
	}
	m.composer.SetValue("")
	m.errorMessage = ""
	m.infoMessage = "Thinking…"
	m.markTranscriptDirty()
	m.scrollToLatest()
	return m, tea.Batch(m.spinner.Tick, sendChatCmd(m.config.Coordinator.Client(), question))
}

func (m *model) submitUpload(value string) (tea.Model, tea.Cmd) {
	started, err := m.config.Coordinator.BeginUpload(value)
	if err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	if !started {
		return m, nil
	}
	m.resetComposer(composerModeChat)
	m.errorMessage = ""
	m.infoMessage = "Uploading…"
	m.markTranscriptDirty()
	m.scrollToLatest()
	return m, tea.Batch(m.spinner.Tick, uploadFileCmd(m.config.Coordinator.Client(), value))
}

func (m *model) submitFeedback(value string) (tea.Model, tea.Cmd) {
	req, err := m.config.Coordinator.PrepareFeedback(m.feedbackTarget, value)
	if err != nil {
		m.errorMessage = err.Error()
		return m, nil
	}
	m.errorMessage = ""
	m.infoMessage = "Submitting feedback…"
	return m, tea.Batch(m.spinner.Tick, submitFeedbackCmd(m.config.Coordinator.Client(), req))
}

func (m *model) beginFeedbackEntry() (tea.Model, tea.Cmd) {
	target, ok := m.selectedTarget()
	if !ok {
		m.infoMessage = "Move the selection onto an answer first (↑/↓)."
		return m, nil
	}
	if m.config.Coordinator.FeedbackVisible(target.ID) && m.feedbackTarget == target.ID {
		m.config.Coordinator.HideFeedbackForm(target.ID)
		m.resetComposer(composerModeChat)
		m.infoMessage = "Feedback form closed."
		m.markTranscriptDirty()
		return m, nil
	}
	m.config.Coordinator.ShowFeedbackForm(target.ID)
	m.resetComposer(composerModeFeedback)
	m.feedbackTarget = target.ID
	m.composer.SetValue(target.Answer)
	m.infoMessage = "Edit the answer and press Enter to submit, Esc to cancel."
	m.markTranscriptDirty()
	return m, nil
}

func (m *model) startDownload() (tea.Model, tea.Cmd) {
	if !m.downloadAvailable() {
		m.infoMessage = "Process a questionnaire first; then the workbook can be downloaded."
		return m, nil
	}
	if m.downloading {
		m.infoMessage = "Download already running."
		return m, nil
	}
	m.downloading = true
	m.infoMessage = "Downloading responses…"
	return m, tea.Batch(m.spinner.Tick, downloadCmd(m.config.Coordinator.Client(), m.config.DownloadsDir))
}

// feedbackTargets lists every transcript entry that can receive feedback, in
// transcript order: plain assistant answers first, then each QA item of every
// processed batch.
func (m *model) feedbackTargets() []feedbackTarget {
	var targets []feedbackTarget
	for _, message := range m.config.Coordinator.Messages() {
		switch {
		case message.FeedbackEligible():
			targets = append(targets, feedbackTarget{
				ID:       message.ID,
				Question: message.OriginatingQuestion,
				Answer:   message.Text,
			})
		case message.Kind == chat.KindQABatch:
			for _, item := range message.QAItems {
				targets = append(targets, feedbackTarget{
					ID:       item.ID,
					Question: item.Question,
					Answer:   item.Answer,
				})
			}
		}
	}
	return targets
}

func (m *model) selectedTarget() (feedbackTarget, bool) {
	targets := m.feedbackTargets()
	if m.selection < 0 || m.selection >= len(targets) {
		return feedbackTarget{}, false
	}
	return targets[m.selection], true
}

func (m *model) moveSelection(delta int) {
	targets := m.feedbackTargets()
	if len(targets) == 0 {
		return
	}
	next := m.selection + delta
	if next < 0 {
		next = 0
	}
	if next >= len(targets) {
		next = len(targets) - 1
	}
	if next == m.selection {
		return
	}
	m.selection = next
	m.markTranscriptDirty()
}

func (m *model) resetComposer(mode composerMode) {
	m.composerMode = mode
	m.feedbackTarget = ""
	m.composer.SetValue("")
	switch mode {
	case composerModeFile:
		m.composer.Placeholder = composerFilePlaceholder
	case composerModeFeedback:
		m.composer.Placeholder = composerFeedbackPlaceholder
	default:
		m.composer.Placeholder = composerChatPlaceholder
	}
	m.composer.Focus()
}

func (m *model) downloadAvailable() bool {
	for _, message := range m.config.Coordinator.Messages() {
		if message.Kind == chat.KindDownloadPrompt {
			return true
		}
	}
	return false
}

func (m *model) busy() bool {
	return m.config.Coordinator.Sending() || m.config.Coordinator.Uploading() || m.downloading
}

func (m *model) markTranscriptDirty() {
	m.transcriptDirty = true
}

func (m *model) scrollToLatest() {
	m.refreshTranscriptIfDirty()
	m.viewport.GotoBottom()
}
