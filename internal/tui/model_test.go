package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlefebre/askdesk/internal/api"
	"github.com/mlefebre/askdesk/internal/chat"
	"github.com/mlefebre/askdesk/internal/session"
)

type fakeClient struct {
	chatReply api.ChatReply
	chatErr   error
}

func (f *fakeClient) SendChat(ctx context.Context, text string) (api.ChatReply, error) {
	return f.chatReply, f.chatErr
}

func (f *fakeClient) UploadFile(ctx context.Context, path string) (api.UploadResult, error) {
	return api.UploadResult{}, nil
}

func (f *fakeClient) SubmitFeedback(ctx context.Context, req api.FeedbackRequest) error {
	return nil
}

func (f *fakeClient) DownloadURL() string { return "http://backend.test/download-responses" }

func (f *fakeClient) DownloadResponses(ctx context.Context, dir string) (string, error) {
	return dir + "/responses.xlsx", nil
}

func newTestModel(t *testing.T) (*model, *session.Coordinator) {
	t.Helper()
	coordinator := session.NewCoordinator(&fakeClient{}, session.WithIDGenerator(&chat.SequentialGenerator{}))
	m, ok := New(Config{Coordinator: coordinator, DownloadsDir: t.TempDir()}).(*model)
	if !ok {
		t.Fatal("New should return *model")
	}
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 32})
	return m, coordinator
}

func typeText(m *model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestEnterSubmitsChatAndReturnsCommand(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	typeText(m, "What is the SLA?")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submitting a question should return a command")
	}
	if !coordinator.Sending() {
		t.Fatal("a chat request should be in flight")
	}
	messages := coordinator.Messages()
	last := messages[len(messages)-1]
	if last.Origin != chat.OriginUser || last.Text != "What is the SLA?" {
		t.Fatalf("user message not appended: %+v", last)
	}
	if m.composer.Value() != "" {
		t.Fatal("composer should be cleared after submit")
	}
}

func TestEnterWithBlankComposerIsNoOp(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	before := len(coordinator.Messages())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("blank submit must not issue a command")
	}
	if len(coordinator.Messages()) != before {
		t.Fatal("blank submit must not grow the transcript")
	}
}

func TestChatResultRendersAnswer(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	typeText(m, "What is the project status?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(chatResultMsg{
		question: "What is the project status?",
		reply:    api.ChatReply{Response: "On track"},
	})

	if coordinator.Sending() {
		t.Fatal("coordinator should be idle again")
	}
	if view := m.View(); !strings.Contains(view, "On track") {
		t.Fatalf("answer missing from view:\n%s", view)
	}
}

func TestChatResultErrorShowsFallback(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	typeText(m, "hello")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(chatResultMsg{question: "hello", err: errors.New("connection refused")})

	view := m.View()
	if !strings.Contains(view, "Sorry, there was an error processing your request.") {
		t.Fatalf("fallback answer missing from view:\n%s", view)
	}
	if !strings.Contains(view, "connection refused") {
		t.Fatalf("error line missing from view:\n%s", view)
	}
}

func TestCtrlUSwitchesToFileMode(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	if m.composerMode != composerModeFile {
		t.Fatalf("composer mode = %d, want file mode", m.composerMode)
	}
	if m.composer.Placeholder != composerFilePlaceholder {
		t.Fatalf("placeholder = %q", m.composer.Placeholder)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.composerMode != composerModeChat {
		t.Fatal("Esc should return to chat mode")
	}
}

func TestUploadUnsupportedExtensionStaysLocal(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	typeText(m, "report.pdf")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Fatal("rejected upload must not issue a command")
	}
	if m.errorMessage == "" {
		t.Fatal("the rejection should surface as an error line")
	}
	if coordinator.Uploading() {
		t.Fatal("no upload may be in flight")
	}
}

func TestUploadResultRendersBatch(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	typeText(m, "budget.xlsx")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("a valid upload should return a command")
	}
	m.Update(uploadResultMsg{result: api.UploadResult{
		Status: "success",
		Responses: []api.UploadAnswer{
			{Question: "Q1 spend?", Response: "$10k", Source: "sheet1"},
		},
	}})

	if coordinator.Uploading() {
		t.Fatal("coordinator should be idle again")
	}
	view := m.View()
	for _, want := range []string{"Q1 spend?", "$10k", "sheet1"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestFeedbackFlowOpensAndSubmitsForm(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	typeText(m, "What is the SLA?")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(chatResultMsg{
		question: "What is the SLA?",
		reply:    api.ChatReply{Response: "99.9% uptime"},
	})

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	if m.composerMode != composerModeFeedback {
		t.Fatal("Ctrl+F on a selected answer should open the feedback form")
	}
	if m.composer.Value() != "99.9% uptime" {
		t.Fatalf("composer should be prefilled with the answer, got %q", m.composer.Value())
	}
	if !coordinator.FeedbackVisible(m.feedbackTarget) {
		t.Fatal("the form should be tracked as visible")
	}

	target := m.feedbackTarget
	m.composer.SetValue("99.95% uptime")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("submitting feedback should return a command")
	}
	m.Update(feedbackResultMsg{itemID: target})
	if coordinator.FeedbackVisible(target) {
		t.Fatal("successful feedback should close the form")
	}
	if m.composerMode != composerModeChat {
		t.Fatal("composer should return to chat mode")
	}
}

func TestFeedbackFailureKeepsFormOpen(t *testing.T) {
	t.Parallel()

	m, coordinator := newTestModel(t)
	typeText(m, "hi")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(chatResultMsg{question: "hi", reply: api.ChatReply{Response: "hello"}})

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	target := m.feedbackTarget

	m.Update(feedbackResultMsg{itemID: target, err: errors.New("backend unavailable")})
	if !coordinator.FeedbackVisible(target) {
		t.Fatal("failed feedback must leave the form open")
	}
	if m.composerMode != composerModeFeedback {
		t.Fatal("composer should stay in feedback mode for a retry")
	}
}

func TestCtrlDRequiresProcessedQuestionnaire(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if cmd != nil {
		t.Fatal("download must be unavailable before an upload succeeded")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	typeText(m, "budget.xlsx")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(uploadResultMsg{result: api.UploadResult{
		Status:    "success",
		Responses: []api.UploadAnswer{{Question: "Q1?", Response: "A1"}},
	}})

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	if cmd == nil {
		t.Fatal("download should start once the prompt is in the transcript")
	}
	m.Update(downloadResultMsg{path: "/tmp/responses.xlsx"})
	if m.downloading {
		t.Fatal("download flag should clear on result")
	}
	if !strings.Contains(m.infoMessage, "/tmp/responses.xlsx") {
		t.Fatalf("info line should name the saved file, got %q", m.infoMessage)
	}
}

func TestViewShowsWelcomeMessage(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	if view := m.View(); !strings.Contains(view, "AskDesk") {
		t.Fatalf("welcome missing from view:\n%s", view)
	}
}

func TestCtrlCQuits(t *testing.T) {
	t.Parallel()

	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("Ctrl+C should return tea.Quit")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Fatalf("expected quit message, got %#v", msg)
	}
}
