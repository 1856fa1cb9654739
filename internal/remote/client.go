// Package remote is the HTTP client for the quiz backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
)

// DefaultBaseURL is the backend address used when none is configured.
const DefaultBaseURL = "http://localhost:8000"

const maxErrorBody = 512

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Code, e.Body)
}

// Client talks JSON over HTTP to the quiz backend. It implements
// session.AnswerSink, grading.Grader and grading.Explainer.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type updateAnswersRequest struct {
	QuizID  string   `json:"quiz_id"`
	Answers []string `json:"your_answers"`
}

// UpdateAnswers persists the positional answer list for a quiz.
func (c *Client) UpdateAnswers(ctx context.Context, quizID string, answers []string) error {
	return c.post(ctx, "update answers", "/update_answers", updateAnswersRequest{
		QuizID:  quizID,
		Answers: answers,
	}, nil)
}

// Grade asks the backend to grade a free-text answer.
func (c *Client) Grade(ctx context.Context, req grading.Request) (*grading.Grade, error) {
	var out grading.Grade
	if err := c.post(ctx, "grade answer", "/grade-open-answer", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type explainResponse struct {
	Explanation string `json:"explanation"`
}

// Explain asks the backend why an answer is correct.
func (c *Client) Explain(ctx context.Context, req grading.ExplainRequest) (string, error) {
	var out explainResponse
	if err := c.post(ctx, "explain answer", "/explain-answer", req, &out); err != nil {
		return "", err
	}
	return out.Explanation, nil
}

type registerResponse struct {
	QuizID string `json:"quiz_id"`
}

// RegisterQuiz stores q on the backend and returns its quiz ID. The backend
// assigns one when q.ID is empty.
func (c *Client) RegisterQuiz(ctx context.Context, q *quiz.Quiz) (string, error) {
	var out registerResponse
	if err := c.post(ctx, "register quiz", "/quizzes", q, &out); err != nil {
		return "", err
	}
	return out.QuizID, nil
}

// StoredQuiz is a quiz as held by the backend.
type StoredQuiz struct {
	Quiz      quiz.Quiz `json:"quiz"`
	Answers   []string  `json:"your_answers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetQuiz fetches a registered quiz with its last submitted answers.
func (c *Client) GetQuiz(ctx context.Context, id string) (*StoredQuiz, error) {
	var out StoredQuiz
	if err := c.do(ctx, "get quiz", http.MethodGet, "/quizzes/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListQuizzes returns the backend's quizzes newest first, limited to topic
// when it is set. No matching quizzes is not an error.
func (c *Client) ListQuizzes(ctx context.Context, topic string) ([]StoredQuiz, error) {
	path := "/quizzes"
	if topic != "" {
		path += "?" + url.Values{"topic": {topic}}.Encode()
	}

	var out []StoredQuiz
	err := c.do(ctx, "list quizzes", http.MethodGet, path, nil, &out)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteQuiz removes a quiz and its saved answers from the backend.
func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	return c.do(ctx, "delete quiz", http.MethodDelete, "/quizzes/"+url.PathEscape(id), nil, nil)
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "health", http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.DebugContext(ctx, "backend call",
		"op", op,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}
