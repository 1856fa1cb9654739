package tui

// submittedMsg carries the outcome of a Submit call.
type submittedMsg struct {
	Err error
}

// gradingDoneMsg is sent when no grading request is in flight any more.
type gradingDoneMsg struct{}

// explainedMsg carries an explanation for one question.
type explainedMsg struct {
	Index       int
	Explanation string
	Err         error
}
