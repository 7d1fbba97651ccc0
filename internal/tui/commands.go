package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mlefebre/askdesk/internal/api"
)

const requestTimeout = 2 * time.Minute

type chatResultMsg struct {
	question string
	reply    api.ChatReply
	err      error
}

type uploadResultMsg struct {
	result api.UploadResult
	err    error
}

type feedbackResultMsg struct {
	itemID string
	err    error
}

type downloadResultMsg struct {
	path string
	err  error
}

func sendChatCmd(client api.Client, question string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		reply, err := client.SendChat(ctx, question)
		return chatResultMsg{question: question, reply: reply, err: err}
	}
}

func uploadFileCmd(client api.Client, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := client.UploadFile(ctx, path)
		return uploadResultMsg{result: result, err: err}
	}
}

func submitFeedbackCmd(client api.Client, req api.FeedbackRequest) tea.Cmd {
	itemID := req.MessageID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.SubmitFeedback(ctx, req)
		return feedbackResultMsg{itemID: itemID, err: err}
	}
}

func downloadCmd(client api.Client, dir string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		path, err := client.DownloadResponses(ctx, dir)
		return downloadResultMsg{path: path, err: err}
	}
}
