package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultHTTPTimeout = 90 * time.Second

// acceptedExtensions are the questionnaire formats the backend understands.
// The gate lives client-side so a bad pick never costs a round trip.
var acceptedExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// ChatReply is the payload of POST /chat.
type ChatReply struct {
	Response string `json:"response"`
	Context  []any  `json:"context"`
}

// UploadAnswer is one answered question from POST /upload.
type UploadAnswer struct {
	Question string `json:"question"`
	Response string `json:"response"`
	Source   string `json:"source"`
}

// UploadResult is the payload of POST /upload. Status other than "success"
// carries a human-readable Message instead of Responses.
type UploadResult struct {
	Status    string         `json:"status"`
	Responses []UploadAnswer `json:"responses"`
	Message   string         `json:"message"`
}

// UploadSucceeded reports whether the backend processed the file.
func (r UploadResult) UploadSucceeded() bool {
	return r.Status == "success"
}

// Ratings carries the numeric scores attached to a feedback submission.
type Ratings struct {
	Relevance int `json:"relevance"`
	Accuracy  int `json:"accuracy"`
}

// FeedbackRequest is the body of POST /feedback.
type FeedbackRequest struct {
	MessageID      string  `json:"messageId"`
	FeedbackType   string  `json:"feedbackType"`
	EditedAnswer   string  `json:"editedAnswer"`
	Ratings        Ratings `json:"ratings"`
	OriginalQuery  string  `json:"original_query"`
	OriginalAnswer string  `json:"original_answer"`
	ContextUsed    []any   `json:"context_used"`
}

type feedbackReply struct {
	Status string `json:"status"`
}

// Client is the only component that talks to the backend.
type Client interface {
	SendChat(ctx context.Context, text string) (ChatReply, error)
	UploadFile(ctx context.Context, path string) (UploadResult, error)
	SubmitFeedback(ctx context.Context, req FeedbackRequest) error
	DownloadURL() string
	DownloadResponses(ctx context.Context, dir string) (string, error)
}

// Config describes how to build an HTTP client against the backend.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// HTTPClient implements Client over the backend's REST surface.
type HTTPClient struct {
	base   string
	client *http.Client
	log    *logrus.Logger
}

func NewHTTPClient(cfg Config) *HTTPClient {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &HTTPClient{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: client,
		log:    log,
	}
}

// CheckUploadName validates the filename extension without touching the
// network or the filesystem.
func CheckUploadName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !acceptedExtensions[ext] {
		return ErrUnsupportedFileType
	}
	return nil
}

func (c *HTTPClient) SendChat(ctx context.Context, text string) (ChatReply, error) {
	payload := map[string]string{"message": text}
	body, err := json.Marshal(payload)
	if err != nil {
		return ChatReply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat", bytes.NewReader(body))
	if err != nil {
		return ChatReply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithField("chars", len(text)).Debug("sending chat message")
	data, err := c.do(req)
	if err != nil {
		return ChatReply{}, err
	}

	var reply ChatReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return ChatReply{}, fmt.Errorf("failed to decode chat response: %w", err)
	}
	return reply, nil
}

func (c *HTTPClient) UploadFile(ctx context.Context, path string) (UploadResult, error) {
	if err := CheckUploadName(path); err != nil {
		return UploadResult{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return UploadResult{}, err
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{}, err
	}
	if err := writer.Close(); err != nil {
		return UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload", &buf)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.WithField("file", filepath.Base(path)).Info("uploading questionnaire")
	data, err := c.do(req)
	if err != nil {
		return UploadResult{}, err
	}

	var result UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return UploadResult{}, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return result, nil
}

func (c *HTTPClient) SubmitFeedback(ctx context.Context, feedback FeedbackRequest) error {
	body, err := json.Marshal(feedback)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/feedback", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithField("messageId", feedback.MessageID).Info("submitting feedback")
	data, err := c.do(req)
	if err != nil {
		return err
	}

	var reply feedbackReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return fmt.Errorf("failed to decode feedback response: %w", err)
	}
	if reply.Status != "success" {
		return fmt.Errorf("feedback rejected: status %q", reply.Status)
	}
	return nil
}

// DownloadURL returns the fixed endpoint serving the compiled responses
// workbook. It is a reference, never polled.
func (c *HTTPClient) DownloadURL() string {
	return c.base + "/download-responses"
}

// DownloadResponses fetches the responses workbook and writes it into dir,
// returning the written path.
func (c *HTTPClient) DownloadResponses(ctx context.Context, dir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.DownloadURL(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &ServerError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := attachmentName(resp.Header.Get("Content-Disposition"))
	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", err
	}
	c.log.WithField("path", path).Info("downloaded responses workbook")
	return path, nil
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		c.log.WithFields(logrus.Fields{
			"status": resp.Status,
			"path":   req.URL.Path,
		}).Error("backend request failed")
		return nil, &ServerError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
	}
	return body, nil
}

func attachmentName(disposition string) string {
	const fallback = "responses.xlsx"
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return fallback
	}
	if name := filepath.Base(params["filename"]); name != "" && name != "." && name != string(filepath.Separator) {
		return name
	}
	return fallback
}
