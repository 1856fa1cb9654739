package session

// answerChecker reports whether a question index has an answer.
type answerChecker interface {
	Has(index int) bool
}

// Navigator is a cursor over question indices [0, total-1]. Moving forward
// requires the current question to be answered; moving back never touches
// answers. There is no random access.
type Navigator struct {
	current int
	total   int
	answers answerChecker
}

// NewNavigator creates a Navigator positioned at index 0.
func NewNavigator(total int, answers answerChecker) *Navigator {
	return &Navigator{total: total, answers: answers}
}

// Current returns the current index.
func (n *Navigator) Current() int { return n.current }

// Total returns the number of questions.
func (n *Navigator) Total() int { return n.total }

// AtLast reports whether the cursor is on the final question. Callers offer
// submission instead of Next there.
func (n *Navigator) AtLast() bool {
	return n.current >= n.total-1
}

// CanAdvance reports whether the current question is answered, which gates
// both Next and submission from the last question.
func (n *Navigator) CanAdvance() bool {
	return n.total > 0 && n.answers.Has(n.current)
}

// Next advances one question. It is refused while the current question is
// unanswered and is a no-op at the last index. It reports whether the cursor
// moved.
func (n *Navigator) Next() bool {
	if !n.CanAdvance() || n.AtLast() {
		return false
	}
	n.current++
	return true
}

// Back moves one question back. It is refused at index 0.
func (n *Navigator) Back() bool {
	if n.current == 0 {
		return false
	}
	n.current--
	return true
}

// Reset returns the cursor to index 0.
func (n *Navigator) Reset() {
	n.current = 0
}
