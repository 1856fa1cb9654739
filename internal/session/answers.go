package session

import "github.com/abhisek/quizly/internal/quiz"

// NotAnswered is the value reported for questions without an answer.
const NotAnswered = quiz.NotAnswered

// AnswerStore maps question indices to the latest raw answer. Values are not
// validated: an option label and a paragraph are both just strings.
//
// AnswerStore is not safe for concurrent use; Session serializes access.
type AnswerStore struct {
	values map[int]string
}

// NewAnswerStore creates an empty AnswerStore.
func NewAnswerStore() *AnswerStore {
	return &AnswerStore{values: make(map[int]string)}
}

// Set records value for index, replacing any earlier value. Setting the
// empty string or the NotAnswered sentinel clears the entry.
func (a *AnswerStore) Set(index int, value string) {
	if !quiz.Answered(value) {
		delete(a.values, index)
		return
	}
	a.values[index] = value
}

// Get returns the stored value for index.
func (a *AnswerStore) Get(index int) (string, bool) {
	v, ok := a.values[index]
	return v, ok
}

// Answer returns the stored value for index or NotAnswered.
func (a *AnswerStore) Answer(index int) string {
	if v, ok := a.values[index]; ok {
		return v
	}
	return NotAnswered
}

// Has reports whether index has an answer.
func (a *AnswerStore) Has(index int) bool {
	_, ok := a.values[index]
	return ok
}

// AnsweredCount returns how many indices hold an answer.
func (a *AnswerStore) AnsweredCount() int {
	return len(a.values)
}

// Snapshot returns n positional answers with NotAnswered for gaps.
func (a *AnswerStore) Snapshot(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = a.Answer(i)
	}
	return out
}

// Map returns a copy of the stored answers.
func (a *AnswerStore) Map() map[int]string {
	out := make(map[int]string, len(a.values))
	for i, v := range a.values {
		out[i] = v
	}
	return out
}

// Reset removes every answer.
func (a *AnswerStore) Reset() {
	clear(a.values)
}
