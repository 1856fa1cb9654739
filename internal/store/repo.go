package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/quizly/internal/quiz"
)

// ErrAnswerCount is returned when a submitted answer list does not line up
// with the stored quiz's questions.
var ErrAnswerCount = errors.New("number of answers does not match number of questions")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Purpose string    // exact purpose match ("" = any)
	After   int64     // id > After
	Before  int64     // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// QuizRecord is a stored quiz together with the last submitted answers.
type QuizRecord struct {
	Quiz      quiz.Quiz
	Answers   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuizRepo persists quizzes and their submitted answers.
type QuizRepo interface {
	// SaveQuiz inserts or replaces a quiz. Stored answers survive a replace.
	SaveQuiz(ctx context.Context, q *quiz.Quiz) error

	// GetQuiz returns the quiz with the given ID or ErrNotFound.
	GetQuiz(ctx context.Context, id string) (*QuizRecord, error)

	// UpdateAnswers overwrites the stored answers for a quiz. It returns
	// ErrNotFound for an unknown quiz and ErrAnswerCount when the number of
	// answers differs from the number of questions.
	UpdateAnswers(ctx context.Context, id string, answers []string) error

	// ListQuizzes returns stored quizzes newest first. An empty topic lists
	// every quiz; otherwise only quizzes with exactly that topic are returned.
	ListQuizzes(ctx context.Context, topic string) ([]QuizRecord, error)

	// DeleteQuiz removes a quiz and its answers. It returns ErrNotFound for
	// an unknown quiz.
	DeleteQuiz(ctx context.Context, id string) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	LLMRequestEventData
	ID        int64
	Timestamp time.Time
}

// PurposeUsage aggregates LLM usage for one purpose.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// LLMEventRepo records and queries LLM request events.
type LLMEventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
