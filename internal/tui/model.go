// Package tui is the terminal front end for taking a quiz.
package tui

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizly/internal/quiz"
	"github.com/abhisek/quizly/internal/session"
)

type phase int

const (
	phaseTaking phase = iota
	phaseSubmitting
	phaseResults
)

// Model is the Bubble Tea model for one quiz session. The session must be
// started before the model is built.
type Model struct {
	ctx  context.Context
	sess *session.Session

	phase  phase
	input  textinput.Model
	cursor int

	status    string
	statusErr bool

	grading      bool
	explaining   bool
	explanations map[int]string

	width  int
	height int
}

// New creates a Model over a started session.
func New(ctx context.Context, sess *session.Session) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.Focus()

	m := Model{
		ctx:          ctx,
		sess:         sess,
		input:        ti,
		explanations: make(map[int]string),
	}
	m.loadQuestion()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.input.Focus()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(msg.Width-10, 20))
		return m, nil

	case submittedMsg:
		return m.handleSubmitted(msg)

	case gradingDoneMsg:
		m.grading = false
		return m, nil

	case explainedMsg:
		m.explaining = false
		if msg.Err != nil {
			m.setError(fmt.Sprintf("Could not explain question %d: %v", msg.Index+1, msg.Err))
			return m, nil
		}
		m.explanations[msg.Index] = msg.Explanation
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.phase {
		case phaseTaking:
			return m.handleTakingKey(msg)
		case phaseResults:
			return m.handleResultsKey(msg)
		}
		return m, nil
	}

	if m.phase == phaseTaking && !m.objective() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleTakingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "enter":
		return m.advance(true)
	case "tab":
		return m.advance(false)
	case "shift+tab":
		m.status = ""
		if m.sess.Back() {
			m.loadQuestion()
		}
		return m, nil
	}

	if m.objective() {
		options := m.question().Options
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(options)-1 {
				m.cursor++
			}
		default:
			if n, ok := optionNumber(key, len(options)); ok {
				m.cursor = n
				m.choose()
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != m.storedAnswer() {
		_ = m.sess.SetAnswer(m.sess.CurrentIndex(), value)
	}
	return m, cmd
}

// advance records the highlighted option, then moves to the next question.
// On the last question it submits when submit is set.
func (m Model) advance(submit bool) (tea.Model, tea.Cmd) {
	if m.objective() {
		m.choose()
	}

	if m.sess.AtLast() {
		if !submit {
			return m, nil
		}
		if !m.sess.CanAdvance() {
			m.setError("Answer this question before submitting.")
			return m, nil
		}
		m.phase = phaseSubmitting
		m.status = ""
		return m, m.submitCmd()
	}

	if !m.sess.Next() {
		m.setError("Answer this question before moving on.")
		return m, nil
	}
	m.status = ""
	m.loadQuestion()
	return m, nil
}

func (m Model) handleSubmitted(msg submittedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.phase = phaseTaking
		m.setError(fmt.Sprintf("Submit failed: %v. Press Enter to retry.", msg.Err))
		return m, nil
	}
	m.phase = phaseResults
	m.cursor = 0
	m.grading = true
	m.status = ""
	return m, m.waitGradingCmd()
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := m.sess.Quiz().Len()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < total-1 {
			m.cursor++
		}
	case "e":
		if m.explaining {
			return m, nil
		}
		if _, ok := m.explanations[m.cursor]; ok {
			return m, nil
		}
		m.explaining = true
		m.status = fmt.Sprintf("Explaining question %d...", m.cursor+1)
		m.statusErr = false
		return m, m.explainCmd(m.cursor)
	case "q", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) submitCmd() tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return submittedMsg{Err: sess.Submit(ctx)}
	}
}

func (m Model) waitGradingCmd() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		sess.WaitGrading()
		return gradingDoneMsg{}
	}
}

func (m Model) explainCmd(index int) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		text, err := sess.Explain(ctx, index)
		return explainedMsg{Index: index, Explanation: text, Err: err}
	}
}

// loadQuestion syncs the input widgets with the stored answer for the
// current question.
func (m *Model) loadQuestion() {
	q := m.question()
	stored := m.storedAnswer()

	m.cursor = 0
	if q.Objective() {
		for i, opt := range q.Options {
			if quiz.Answered(stored) && opt == stored {
				m.cursor = i
				break
			}
		}
		return
	}

	m.input.Reset()
	if quiz.Answered(stored) {
		m.input.SetValue(stored)
		m.input.CursorEnd()
	}
}

func (m *Model) choose() {
	options := m.question().Options
	if m.cursor >= 0 && m.cursor < len(options) {
		_ = m.sess.SetAnswer(m.sess.CurrentIndex(), options[m.cursor])
	}
}

func (m *Model) setError(status string) {
	m.status = status
	m.statusErr = true
}

func (m Model) question() quiz.Question {
	return m.sess.Quiz().Questions[m.sess.CurrentIndex()]
}

func (m Model) objective() bool {
	return m.question().Objective()
}

// storedAnswer returns the stored answer with the sentinel mapped to "".
func (m Model) storedAnswer() string {
	a := m.sess.Answer(m.sess.CurrentIndex())
	if !quiz.Answered(a) {
		return ""
	}
	return a
}

// optionNumber maps "1".."9" to an option index.
func optionNumber(key string, n int) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	i := int(key[0] - '1')
	return i, i < n
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(New(ctx, sess), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
