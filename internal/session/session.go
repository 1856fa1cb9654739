// Package session drives one pass through a quiz: answer capture,
// navigation, submission and scoring.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
	"github.com/abhisek/quizly/internal/scoring"
)

var (
	ErrEmptyQuiz        = errors.New("quiz has no questions")
	ErrNotStarted       = errors.New("session not started")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrSubmitInProgress = errors.New("submission in progress")
	ErrIndexOutOfRange  = errors.New("question index out of range")
	ErrNoExplainer      = errors.New("no explainer configured")
)

// SubmitError reports a failed answer submission. The session stays in
// progress and Submit may be retried.
type SubmitError struct {
	QuizID string
	Err    error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit answers for quiz %q: %v", e.QuizID, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// State is the lifecycle state of a Session.
type State int

const (
	StateNotStarted State = iota
	StateInProgress
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateInProgress:
		return "in_progress"
	case StateSubmitted:
		return "submitted"
	default:
		return "not_started"
	}
}

// AnswerSink persists a positional answer list for a quiz.
type AnswerSink interface {
	UpdateAnswers(ctx context.Context, quizID string, answers []string) error
}

// Deps holds a Session's collaborators. Sink and Grading are required.
type Deps struct {
	Sink    AnswerSink
	Grading *grading.Coordinator

	// Explainer is optional; without it Explain returns ErrNoExplainer.
	Explainer grading.Explainer

	// Policy defaults to scoring.DefaultPolicy.
	Policy scoring.Policy

	Logger *slog.Logger
}

// Session is the quiz session engine. It is safe for concurrent use: UI
// events, timer callbacks and submission may run on different goroutines.
type Session struct {
	deps   Deps
	logger *slog.Logger

	mu         sync.Mutex
	quiz       *quiz.Quiz
	state      State
	submitting bool
	answers    *AnswerStore
	nav        *Navigator
}

// New creates an un-started Session.
func New(deps Deps) *Session {
	if deps.Policy == nil {
		deps.Policy = scoring.DefaultPolicy{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	answers := NewAnswerStore()
	return &Session{
		deps:    deps,
		logger:  logger,
		answers: answers,
		nav:     NewNavigator(0, answers),
	}
}

// Start begins a session on q, discarding answers, grading results and
// position from any earlier run. A quiz without questions is refused and
// leaves the session unchanged.
func (s *Session) Start(q *quiz.Quiz) error {
	if q.Len() == 0 {
		return ErrEmptyQuiz
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return ErrSubmitInProgress
	}

	for _, issue := range quiz.Validate(q) {
		s.logger.Warn("quiz data issue", "quiz_id", q.ID, "issue", issue.String())
	}

	s.answers.Reset()
	s.deps.Grading.Reset(q)
	s.nav = NewNavigator(q.Len(), s.answers)
	s.quiz = q
	s.state = StateInProgress
	return nil
}

// SetAnswer records the latest value for question index. Free-text edits are
// forwarded to the grading coordinator.
func (s *Session) SetAnswer(index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateNotStarted {
		return ErrNotStarted
	}
	if index < 0 || index >= s.quiz.Len() {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	s.answers.Set(index, value)
	if !s.quiz.Questions[index].Objective() {
		s.deps.Grading.OnAnswerEdited(index, value)
	}
	return nil
}

// Next moves to the following question. It reports false when the current
// question is unanswered or already the last one.
func (s *Session) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Next()
}

// Back moves to the previous question. It reports false at the first one.
func (s *Session) Back() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Back()
}

// CanAdvance reports whether the current question is answered. The UI
// offers Next, or Submit on the last question, only when it is.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.CanAdvance()
}

// AtLast reports whether the current question is the last one.
func (s *Session) AtLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.AtLast()
}

// Submit persists the answers and moves the session to StateSubmitted.
//
// Free-text answers without a fresh grade are sent for grading but not
// waited for; ScoreSummary counts them as zero until they resolve. If
// persisting fails the session stays in progress, nothing is graded, and a
// *SubmitError is returned.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateNotStarted:
		s.mu.Unlock()
		return ErrNotStarted
	case s.state == StateSubmitted:
		s.mu.Unlock()
		return ErrAlreadySubmitted
	case s.submitting:
		s.mu.Unlock()
		return ErrSubmitInProgress
	}
	s.submitting = true
	id := s.quiz.ID
	snapshot := s.answers.Snapshot(s.quiz.Len())
	s.mu.Unlock()

	err := s.deps.Sink.UpdateAnswers(ctx, id, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if err != nil {
		s.logger.Warn("answer submission failed", "quiz_id", id, "error", err)
		return &SubmitError{QuizID: id, Err: err}
	}

	sent := s.deps.Grading.GradeAllPending(ctx, s.answers.Map())
	s.logger.Debug("answers submitted", "quiz_id", id, "grading_dispatched", sent)

	s.state = StateSubmitted
	s.nav.Reset()
	return nil
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Quiz returns the active quiz, or nil before Start.
func (s *Session) Quiz() *quiz.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// CurrentIndex returns the index of the displayed question.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

// Answer returns the stored answer for index or NotAnswered.
func (s *Session) Answer(index int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Answer(index)
}

// Progress returns the number of answered questions and the total.
func (s *Session) Progress() (answered, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.AnsweredCount(), s.quiz.Len()
}

// GradingResult returns the cached grade for a free-text question.
func (s *Session) GradingResult(index int) (grading.Result, bool) {
	return s.deps.Grading.Result(index)
}

// ScoreSummary aggregates the current answers and grading results. Before
// outstanding grading requests resolve the total is provisional.
func (s *Session) ScoreSummary() scoring.Summary {
	s.mu.Lock()
	q, answers := s.quiz, s.answers.Map()
	s.mu.Unlock()

	return scoring.Aggregate(q, answers, s.deps.Grading.Results(), s.deps.Policy)
}

// Explain asks the explainer why the expected answer to question index is
// correct.
func (s *Session) Explain(ctx context.Context, index int) (string, error) {
	if s.deps.Explainer == nil {
		return "", ErrNoExplainer
	}

	s.mu.Lock()
	q := s.quiz
	s.mu.Unlock()

	if q == nil {
		return "", ErrNotStarted
	}
	if index < 0 || index >= q.Len() {
		return "", fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	question := q.Questions[index]
	explanation, err := s.deps.Explainer.Explain(ctx, grading.ExplainRequest{
		Question: question.Prompt,
		Answer:   question.Answer,
		Choices:  question.Options,
	})
	if err != nil {
		s.logger.Warn("explanation failed", "question", index+1, "error", err)
		return "", err
	}
	return explanation, nil
}

// WaitGrading blocks until no grading request is in flight.
func (s *Session) WaitGrading() {
	s.deps.Grading.Wait()
}
