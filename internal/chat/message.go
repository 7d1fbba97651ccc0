package chat

import "time"

// Origin identifies which side of the conversation produced a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Kind distinguishes plain exchanges from the structural entries produced by
// batch file processing.
type Kind string

const (
	KindPlain          Kind = "plain"
	KindQABatch        Kind = "qaBatch"
	KindDownloadPrompt Kind = "downloadPrompt"
)

// SourceUnknown is recorded when the backend omits the answer source.
const SourceUnknown = "unknown"

// QAItem is one question/answer/source triple from a processed file. Each
// item carries its own ID because feedback is submitted per item, not per
// batch.
type QAItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source"`
}

// Message is one entry in the conversation log. Assistant messages that can
// receive feedback always have an ID; fallback error messages never do.
type Message struct {
	ID                  string    `json:"id,omitempty"`
	Text                string    `json:"text"`
	Origin              Origin    `json:"origin"`
	Kind                Kind      `json:"kind"`
	QAItems             []QAItem  `json:"qaItems,omitempty"`
	OriginatingQuestion string    `json:"originatingQuestion,omitempty"`
	ContextUsed         []any     `json:"contextUsed,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// FeedbackEligible reports whether the message itself can be the target of a
// feedback submission.
func (m Message) FeedbackEligible() bool {
	return m.ID != "" && m.Origin == OriginAssistant && m.Kind == KindPlain
}
