package session

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlefebre/askdesk/internal/api"
	"github.com/mlefebre/askdesk/internal/chat"
)

const (
	welcomeText = "Hello! I'm AskDesk. Ask me a question, or upload an Excel questionnaire and I'll answer every row."

	// fallbackReply replaces the assistant answer when a chat request fails.
	// It carries no ID so it can never receive feedback.
	fallbackReply = "Sorry, there was an error processing your request."

	uploadOKText       = "File processed successfully! Here are the answers to your questions:"
	uploadFailedText   = "Sorry, I couldn't process that file."
	downloadPromptText = "All answers are compiled into a workbook you can download."

	feedbackType = "edit"
)

var (
	// ErrEmptyFeedback rejects a blank corrected answer before any network call.
	ErrEmptyFeedback = errors.New("corrected answer cannot be empty")
	// ErrFeedbackTargetMissing means no message or QA item matches the given ID.
	ErrFeedbackTargetMissing = errors.New("could not find the message this feedback belongs to")
)

// Coordinator owns the conversation state: the message log, the feedback form
// visibility map, and the in-flight flags for the two independent operation
// streams (chat send, file upload). Only the Coordinator mutates that state;
// the TUI update loop calls it from a single goroutine and network I/O happens
// in detached commands that report back as plain values.
type Coordinator struct {
	store      *chat.Store
	visibility *chat.Visibility
	ids        chat.IDGenerator
	client     api.Client
	log        *logrus.Logger

	sending   bool
	uploading bool
}

// Option tweaks Coordinator construction.
type Option func(*Coordinator)

// WithIDGenerator swaps the ID source, mainly for deterministic tests.
func WithIDGenerator(ids chat.IDGenerator) Option {
	return func(c *Coordinator) { c.ids = ids }
}

// WithLogger attaches a logger for coordinator milestones.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Coordinator) { c.log = log }
}

// NewCoordinator builds a coordinator with an empty log seeded with the
// welcome message.
func NewCoordinator(client api.Client, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      chat.NewStore(),
		visibility: chat.NewVisibility(),
		ids:        chat.UUIDGenerator{},
		client:     client,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.New()
		c.log.SetOutput(io.Discard)
	}
	c.append(chat.Message{
		ID:     c.ids.NewID(),
		Text:   welcomeText,
		Origin: chat.OriginAssistant,
		Kind:   chat.KindPlain,
	})
	return c
}

// Client exposes the transport for the command layer.
func (c *Coordinator) Client() api.Client {
	return c.client
}

// Messages returns a snapshot of the conversation log for rendering.
func (c *Coordinator) Messages() []chat.Message {
	return c.store.All()
}

// Sending reports whether a chat request is in flight.
func (c *Coordinator) Sending() bool {
	return c.sending
}

// Uploading reports whether a file upload is in flight.
func (c *Coordinator) Uploading() bool {
	return c.uploading
}

// FeedbackVisible reports whether the feedback form for id is open.
func (c *Coordinator) FeedbackVisible(id string) bool {
	return c.visibility.IsVisible(id)
}

// ShowFeedbackForm opens the feedback form for id.
func (c *Coordinator) ShowFeedbackForm(id string) {
	c.visibility.Show(id)
}

// HideFeedbackForm closes the feedback form for id.
func (c *Coordinator) HideFeedbackForm(id string) {
	c.visibility.Hide(id)
}

// BeginSend validates and records an outgoing chat message. It returns the
// trimmed text and whether a request should be issued; blank input and an
// already-pending send are both no-ops.
func (c *Coordinator) BeginSend(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || c.sending {
		return "", false
	}
	c.append(chat.Message{
		Text:   trimmed,
		Origin: chat.OriginUser,
		Kind:   chat.KindPlain,
	})
	c.sending = true
	c.log.WithField("chars", len(trimmed)).Debug("chat send started")
	return trimmed, true
}

// FinishSend records the outcome of a chat request and returns the appended
// assistant message. Failures degrade to the fixed fallback text; the
// coordinator is ready for the next send either way.
func (c *Coordinator) FinishSend(question string, reply api.ChatReply, err error) chat.Message {
	c.sending = false
	if err != nil {
		c.log.WithError(err).Error("chat send failed")
		message := chat.Message{
			Text:   fallbackReply,
			Origin: chat.OriginAssistant,
			Kind:   chat.KindPlain,
		}
		c.append(message)
		return message
	}
	message := chat.Message{
		ID:                  c.ids.NewID(),
		Text:                reply.Response,
		Origin:              chat.OriginAssistant,
		Kind:                chat.KindPlain,
		OriginatingQuestion: question,
		ContextUsed:         reply.Context,
	}
	c.append(message)
	return message
}

// BeginUpload validates the selected file and records the status entry. It
// reports whether a request should be issued; the extension gate fails locally
// with api.ErrUnsupportedFileType and leaves the log untouched.
func (c *Coordinator) BeginUpload(path string) (bool, error) {
	if path == "" || c.uploading {
		return false, nil
	}
	if err := api.CheckUploadName(path); err != nil {
		return false, err
	}
	c.append(chat.Message{
		Text:   fmt.Sprintf("Uploading and processing %s...", filepath.Base(path)),
		Origin: chat.OriginUser,
		Kind:   chat.KindPlain,
	})
	c.uploading = true
	c.log.WithField("file", filepath.Base(path)).Info("upload started")
	return true, nil
}

// FinishUpload records the outcome of a file upload. Success appends a
// confirmation, one qaBatch entry with a fresh ID per item, and a download
// prompt; any failure appends a single assistant message instead. No partial
// batch is ever appended.
func (c *Coordinator) FinishUpload(result api.UploadResult, err error) {
	c.uploading = false
	if err != nil {
		c.log.WithError(err).Error("upload failed")
		c.append(chat.Message{
			Text:   uploadFailedText,
			Origin: chat.OriginAssistant,
			Kind:   chat.KindPlain,
		})
		return
	}
	if !result.UploadSucceeded() {
		text := result.Message
		if strings.TrimSpace(text) == "" {
			text = uploadFailedText
		}
		c.log.WithField("status", result.Status).Warn("upload rejected by backend")
		c.append(chat.Message{
			Text:   text,
			Origin: chat.OriginAssistant,
			Kind:   chat.KindPlain,
		})
		return
	}

	c.append(chat.Message{
		ID:     c.ids.NewID(),
		Text:   uploadOKText,
		Origin: chat.OriginAssistant,
		Kind:   chat.KindPlain,
	})

	items := make([]chat.QAItem, 0, len(result.Responses))
	for _, answer := range result.Responses {
		source := answer.Source
		if source == "" {
			source = chat.SourceUnknown
		}
		items = append(items, chat.QAItem{
			ID:       c.ids.NewID(),
			Question: answer.Question,
			Answer:   answer.Response,
			Source:   source,
		})
	}
	c.append(chat.Message{
		ID:      c.ids.NewID(),
		Origin:  chat.OriginAssistant,
		Kind:    chat.KindQABatch,
		QAItems: items,
	})
	c.append(chat.Message{
		Text:   downloadPromptText,
		Origin: chat.OriginAssistant,
		Kind:   chat.KindDownloadPrompt,
	})
	c.log.WithField("answers", len(items)).Info("upload processed")
}

// PrepareFeedback validates the corrected answer and resolves the original
// question/answer pair for itemID. It never touches the network: validation
// and resolution failures return before any request exists.
func (c *Coordinator) PrepareFeedback(itemID, editedAnswer string) (api.FeedbackRequest, error) {
	edited := strings.TrimSpace(editedAnswer)
	if edited == "" {
		return api.FeedbackRequest{}, ErrEmptyFeedback
	}

	req := api.FeedbackRequest{
		MessageID:    itemID,
		FeedbackType: feedbackType,
		EditedAnswer: edited,
	}

	messages := c.store.All()
	for _, message := range messages {
		if message.Kind == chat.KindPlain && message.ID == itemID {
			req.OriginalQuery = message.OriginatingQuestion
			req.OriginalAnswer = message.Text
			req.ContextUsed = message.ContextUsed
			return req, nil
		}
	}
	for _, message := range messages {
		if message.Kind != chat.KindQABatch {
			continue
		}
		for _, item := range message.QAItems {
			if item.ID == itemID {
				req.OriginalQuery = item.Question
				req.OriginalAnswer = item.Answer
				return req, nil
			}
		}
	}
	return api.FeedbackRequest{}, ErrFeedbackTargetMissing
}

// FinishFeedback records the outcome of a feedback submission. Success closes
// the form; failure leaves it open so the user can retry.
func (c *Coordinator) FinishFeedback(itemID string, err error) {
	if err != nil {
		c.log.WithError(err).WithField("messageId", itemID).Error("feedback submission failed")
		return
	}
	c.visibility.Hide(itemID)
	c.log.WithField("messageId", itemID).Info("feedback stored")
}

func (c *Coordinator) append(message chat.Message) {
	message.CreatedAt = time.Now()
	c.store.Append(message)
}
