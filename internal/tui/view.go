package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
	"github.com/abhisek/quizly/internal/scoring"
)

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if isTooSmall(m.width, m.height) {
		v.SetContent(renderMinSizeMessage(m.width, m.height))
		return v
	}

	q := m.sess.Quiz()
	header := renderHeader(q.Topic, m.headerStatus(), m.width)
	footer := renderFooter(m.keyHints(), m.width)

	var content string
	switch m.phase {
	case phaseTaking:
		content = m.renderQuestion()
	case phaseSubmitting:
		content = hintStyle.Render("Submitting answers...")
	case phaseResults:
		content = m.renderResults()
	}
	if m.status != "" {
		style := hintStyle
		if m.statusErr {
			style = incorrectStyle
		}
		content += "\n\n" + style.Render(m.status)
	}

	v.SetContent(renderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m Model) headerStatus() string {
	if m.phase == phaseResults {
		s := m.sess.ScoreSummary()
		return fmt.Sprintf("Score %s / %d", formatPoints(s.Total), s.TotalSteps)
	}
	return fmt.Sprintf("Question %d of %d", m.sess.CurrentIndex()+1, m.sess.Quiz().Len())
}

func (m Model) keyHints() []keyHint {
	switch m.phase {
	case phaseTaking:
		hints := []keyHint{}
		if m.objective() {
			hints = append(hints, keyHint{"↑↓/1-9", "Choose"})
		}
		if m.sess.AtLast() {
			hints = append(hints, keyHint{"Enter", "Submit"})
		} else {
			hints = append(hints, keyHint{"Enter", "Next"})
		}
		return append(hints, keyHint{"Shift+Tab", "Back"}, keyHint{"Ctrl+C", "Quit"})
	case phaseResults:
		return []keyHint{{"↑↓", "Select"}, {"E", "Explain"}, {"Q", "Quit"}}
	}
	return []keyHint{{"Ctrl+C", "Quit"}}
}

func (m Model) renderQuestion() string {
	q := m.question()
	idx := m.sess.CurrentIndex()

	var b strings.Builder
	answered, total := m.sess.Progress()
	b.WriteString(renderProgress("Answered", answered, total, m.width-4))
	b.WriteString("\n\n")
	b.WriteString(promptStyle.Render(fmt.Sprintf("%d. %s", idx+1, q.Prompt)))
	b.WriteString("\n\n")

	if !q.Objective() {
		b.WriteString(m.input.View())
		if quiz.AnswerKind(q.Answer) == quiz.TypeLongAnswer {
			b.WriteString("\n\n" + hintStyle.Render("A few sentences are expected."))
		}
		return b.String()
	}

	stored := m.storedAnswer()
	for i, opt := range q.Options {
		prefix := "  "
		if i == m.cursor {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d)  %s", prefix, i+1, opt)
		if stored != "" && opt == stored {
			line += "  ✓"
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(bodyStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderResults() string {
	summary := m.sess.ScoreSummary()
	q := m.sess.Quiz()

	var b strings.Builder
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Your score: %s / %d", formatPoints(summary.Total), summary.TotalSteps)))
	if m.grading {
		b.WriteString("  " + hintStyle.Render("grading in progress..."))
	}
	b.WriteString("\n\n")

	start, end := m.visibleRange(len(summary.Breakdown))
	for _, qs := range summary.Breakdown[start:end] {
		b.WriteString(m.renderResultCard(q.Questions[qs.Index], qs))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderResultCard(q quiz.Question, qs scoring.QuestionScore) string {
	var b strings.Builder
	b.WriteString(promptStyle.Render(fmt.Sprintf("%d. %s", qs.Index+1, q.Prompt)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Your answer: ") + bodyStyle.Render(qs.Answer))
	b.WriteString("\n")

	switch {
	case qs.Objective && qs.Correct:
		b.WriteString(correctStyle.Render("✓ Correct"))
	case qs.Objective:
		b.WriteString(incorrectStyle.Render("✗ Incorrect") + dimStyle.Render("  expected: "+q.Answer))
	case !quiz.Answered(qs.Answer):
		b.WriteString(dimStyle.Render("Not graded"))
	case qs.Graded:
		res, _ := m.sess.GradingResult(qs.Index)
		b.WriteString(scoreStyle.Render(fmt.Sprintf("%s/%s", formatPoints(res.Score), formatPoints(grading.MaxScore))))
		if res.Feedback != "" {
			b.WriteString("  " + bodyStyle.Render(res.Feedback))
		}
	case m.grading:
		b.WriteString(hintStyle.Render("Grading..."))
	default:
		b.WriteString(dimStyle.Render("Grading unavailable"))
	}

	if text, ok := m.explanations[qs.Index]; ok {
		b.WriteString("\n" + hintStyle.Render(text))
	}

	card := cardStyle.Width(max(m.width-6, 20))
	if qs.Index == m.cursor {
		card = card.BorderForeground(colorPrimary)
	}
	return card.Render(b.String())
}

// visibleRange returns the slice of result cards that fits on screen while
// keeping the cursor in view.
func (m Model) visibleRange(n int) (int, int) {
	perPage := max((m.height-12)/6, 1)
	start := 0
	if m.cursor >= perPage {
		start = m.cursor - perPage + 1
	}
	return start, min(start+perPage, n)
}

func formatPoints(p float64) string {
	if p == float64(int64(p)) {
		return fmt.Sprintf("%d", int64(p))
	}
	return fmt.Sprintf("%.1f", p)
}

var _ tea.Model = Model{}
