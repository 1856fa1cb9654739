// Package grading coordinates asynchronous grading of free-text answers and
// provides LLM-backed graders and explainers for the backend service.
package grading

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/quizly/internal/quiz"
)

// MaxScore is the top of the grading scale.
const MaxScore = 10.0

// ErrNoGrade is returned when a grader reports success without a grade.
var ErrNoGrade = errors.New("grader returned no grade")

// Request is one free-text answer to grade.
type Request struct {
	Question       string    `json:"question" validate:"required"`
	ExpectedAnswer string    `json:"expected_answer" validate:"required"`
	UserAnswer     string    `json:"user_answer"`
	AnswerType     quiz.Type `json:"answer_type" validate:"required,oneof=short_answer long_answer"`
}

// Grade is a grader's verdict.
type Grade struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// Result is a cached grade for one question index.
type Result struct {
	Score    float64
	Feedback string

	// Revision is the answer edit the grade was computed from.
	Revision uint64
	GradedAt time.Time
}

// Grader scores a free-text answer.
type Grader interface {
	Grade(ctx context.Context, req Request) (*Grade, error)
}

// GraderFunc adapts a function to the Grader interface.
type GraderFunc func(ctx context.Context, req Request) (*Grade, error)

func (f GraderFunc) Grade(ctx context.Context, req Request) (*Grade, error) {
	return f(ctx, req)
}

// ExplainRequest asks why an answer is correct.
type ExplainRequest struct {
	Question string   `json:"question" validate:"required"`
	Answer   string   `json:"answer" validate:"required"`
	Choices  []string `json:"choices"`
}

// Explainer produces a short explanation of a correct answer.
type Explainer interface {
	Explain(ctx context.Context, req ExplainRequest) (string, error)
}

// ClampScore bounds s to [0, MaxScore].
func ClampScore(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > MaxScore:
		return MaxScore
	}
	return s
}
