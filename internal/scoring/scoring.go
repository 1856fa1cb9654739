// Package scoring computes the final score of a submitted quiz.
package scoring

import (
	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
)

// QuestionScore is one question's contribution to the total.
type QuestionScore struct {
	Index     int
	Objective bool

	// Answer is the stored answer, or quiz.NotAnswered.
	Answer string

	// Correct is set for objective questions only.
	Correct bool

	// Graded reports whether a grading result existed for a free-text
	// question. Ungraded free-text answers contribute zero.
	Graded   bool
	Feedback string

	Points float64
}

// Summary is the aggregate score of a quiz.
type Summary struct {
	// Total is the sum of Breakdown points.
	Total float64

	// TotalSteps is the number of questions, not the maximum attainable
	// points: free-text questions contribute up to grading.MaxScore each
	// under DefaultPolicy.
	TotalSteps int

	Breakdown []QuestionScore
}

// Policy turns a question's raw outcome into points.
type Policy interface {
	// Objective returns the points for an objective question.
	Objective(correct bool) float64

	// Subjective returns the points for a graded free-text question.
	Subjective(score float64) float64
}

// DefaultPolicy awards 1 per correct objective answer and the raw 0-10
// grading score per free-text answer.
type DefaultPolicy struct{}

func (DefaultPolicy) Objective(correct bool) float64 {
	if correct {
		return 1
	}
	return 0
}

func (DefaultPolicy) Subjective(score float64) float64 {
	return score
}

// NormalizedPolicy scales free-text scores into [0, 1] so that the total is
// out of TotalSteps.
type NormalizedPolicy struct{}

func (NormalizedPolicy) Objective(correct bool) float64 {
	return DefaultPolicy{}.Objective(correct)
}

func (NormalizedPolicy) Subjective(score float64) float64 {
	return grading.ClampScore(score) / grading.MaxScore
}

// Aggregate scores every question of q. answers holds the stored answer per
// index; absent or empty entries count as unanswered. results holds the
// cached grading results. A nil policy means DefaultPolicy.
func Aggregate(q *quiz.Quiz, answers map[int]string, results map[int]grading.Result, policy Policy) Summary {
	if policy == nil {
		policy = DefaultPolicy{}
	}

	s := Summary{TotalSteps: q.Len()}
	if q == nil {
		return s
	}

	s.Breakdown = make([]QuestionScore, len(q.Questions))
	for i, question := range q.Questions {
		given := answers[i]
		if !quiz.Answered(given) {
			given = quiz.NotAnswered
		}

		qs := QuestionScore{
			Index:     i,
			Objective: question.Objective(),
			Answer:    given,
		}

		if qs.Objective {
			qs.Correct = quiz.Matches(given, question.Answer)
			qs.Points = policy.Objective(qs.Correct)
		} else if res, ok := results[i]; ok {
			// A cached grade stands even if the answer was cleared after it
			// was graded. Results are only replaced by a later grading.
			qs.Graded = true
			qs.Feedback = res.Feedback
			qs.Points = policy.Subjective(res.Score)
		}

		s.Breakdown[i] = qs
		s.Total += qs.Points
	}
	return s
}
