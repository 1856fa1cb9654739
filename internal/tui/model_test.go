package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
	"github.com/abhisek/quizly/internal/session"
)

type fakeSink struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeSink) UpdateAnswers(_ context.Context, _ string, answers []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, answers)
	return f.err
}

type explainFunc func(ctx context.Context, req grading.ExplainRequest) (string, error)

func (f explainFunc) Explain(ctx context.Context, req grading.ExplainRequest) (string, error) {
	return f(ctx, req)
}

type neverStop struct{}

func (neverStop) Stop() bool { return true }

// neverFire keeps debounce timers from running so only submission grades.
func neverFire(time.Duration, func()) grading.Stopper { return neverStop{} }

func testQuiz() *quiz.Quiz {
	return &quiz.Quiz{
		ID:    "q1",
		Topic: "Geography",
		Questions: []quiz.Question{
			{Prompt: "Capital of France?", Type: quiz.TypeMultipleChoice, Options: []string{"Paris", "Rome"}, Answer: "Paris"},
			{Prompt: "Describe Paris.", Type: quiz.TypeShortAnswer, Answer: "A city on the Seine"},
			{Prompt: "Is Paris in Europe?", Type: quiz.TypeTrueFalse, Options: []string{"True", "False"}, Answer: "True"},
		},
	}
}

func newTestModel(t *testing.T, sink *fakeSink) Model {
	t.Helper()
	return newModelForQuiz(t, sink, testQuiz())
}

func newModelForQuiz(t *testing.T, sink *fakeSink, q *quiz.Quiz) Model {
	t.Helper()
	grader := grading.GraderFunc(func(_ context.Context, req grading.Request) (*grading.Grade, error) {
		return &grading.Grade{Score: 7, Feedback: "Close enough."}, nil
	})
	sess := session.New(session.Deps{
		Sink:    sink,
		Grading: grading.NewCoordinator(grader, grading.WithScheduler(neverFire)),
		Explainer: explainFunc(func(_ context.Context, req grading.ExplainRequest) (string, error) {
			return "Because " + req.Answer + ".", nil
		}),
	})
	if err := sess.Start(q); err != nil {
		t.Fatalf("Start: %v", err)
	}
	m := New(context.Background(), sess)
	m, _ = update(m, tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func typeText(m Model, s string) Model {
	for _, r := range s {
		m, _ = update(m, keyPress(r))
	}
	return m
}

func TestModel_ObjectivePickByNumber(t *testing.T) {
	m := newTestModel(t, &fakeSink{})

	m, _ = update(m, keyPress('2'))
	if got := m.sess.Answer(0); got != "Rome" {
		t.Errorf("answer after '2' = %q, want Rome", got)
	}
	m, _ = update(m, keyPress('1'))
	if got := m.sess.Answer(0); got != "Paris" {
		t.Errorf("answer after '1' = %q, want Paris", got)
	}

	// Out-of-range numbers are ignored.
	m, _ = update(m, keyPress('9'))
	if got := m.sess.Answer(0); got != "Paris" {
		t.Errorf("answer after '9' = %q, want Paris", got)
	}

	m, _ = update(m, specialKey(tea.KeyEnter))
	if got := m.sess.CurrentIndex(); got != 1 {
		t.Errorf("CurrentIndex = %d, want 1", got)
	}
}

func TestModel_ArrowsThenEnterRecordHighlightedOption(t *testing.T) {
	m := newTestModel(t, &fakeSink{})

	m, _ = update(m, specialKey(tea.KeyDown))
	m, _ = update(m, specialKey(tea.KeyEnter))
	if got := m.sess.Answer(0); got != "Rome" {
		t.Errorf("answer = %q, want Rome", got)
	}
}

func TestModel_NextRefusedOnUnansweredFreeText(t *testing.T) {
	m := newTestModel(t, &fakeSink{})
	m, _ = update(m, keyPress('1'))
	m, _ = update(m, specialKey(tea.KeyEnter))

	m, _ = update(m, specialKey(tea.KeyEnter))
	if got := m.sess.CurrentIndex(); got != 1 {
		t.Errorf("CurrentIndex = %d, want 1", got)
	}
	if !m.statusErr || m.status == "" {
		t.Error("expected an error status for unanswered question")
	}
}

func TestModel_TypingRecordsAnswerAndBackRestoresIt(t *testing.T) {
	m := newTestModel(t, &fakeSink{})
	m, _ = update(m, keyPress('1'))
	m, _ = update(m, specialKey(tea.KeyEnter))

	m = typeText(m, "a city")
	if got := m.sess.Answer(1); got != "a city" {
		t.Fatalf("answer = %q, want %q", got, "a city")
	}

	m, _ = update(m, specialKey(tea.KeyEnter))
	if got := m.sess.CurrentIndex(); got != 2 {
		t.Fatalf("CurrentIndex = %d, want 2", got)
	}

	m, _ = update(m, tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	if got := m.sess.CurrentIndex(); got != 1 {
		t.Fatalf("CurrentIndex after back = %d, want 1", got)
	}
	if got := m.input.Value(); got != "a city" {
		t.Errorf("input value = %q, want restored answer", got)
	}
}

func TestModel_SubmitAndResults(t *testing.T) {
	sink := &fakeSink{}
	m := newTestModel(t, sink)

	m, _ = update(m, keyPress('1'))
	m, _ = update(m, specialKey(tea.KeyEnter))
	m = typeText(m, "a city")
	m, _ = update(m, specialKey(tea.KeyEnter))

	// Tab on the last question does not submit.
	m, cmd := update(m, specialKey(tea.KeyTab))
	if cmd != nil || m.phase != phaseTaking {
		t.Fatal("tab on last question should not submit")
	}

	m, cmd = update(m, specialKey(tea.KeyEnter))
	if m.phase != phaseSubmitting || cmd == nil {
		t.Fatalf("phase = %v, want submitting with a command", m.phase)
	}

	m, cmd = update(m, cmd())
	if m.phase != phaseResults {
		t.Fatalf("phase = %v, want results", m.phase)
	}
	if len(sink.calls) != 1 {
		t.Fatalf("sink calls = %d, want 1", len(sink.calls))
	}
	want := []string{"Paris", "a city", "True"}
	for i, a := range want {
		if sink.calls[0][i] != a {
			t.Errorf("submitted[%d] = %q, want %q", i, sink.calls[0][i], a)
		}
	}

	m, _ = update(m, cmd())
	if m.grading {
		t.Error("expected grading to be done")
	}
	summary := m.sess.ScoreSummary()
	if summary.Total != 9 || summary.TotalSteps != 3 {
		t.Errorf("summary = %v / %d, want 9 / 3", summary.Total, summary.TotalSteps)
	}
	if out := m.renderResults(); !strings.Contains(out, "Close enough.") {
		t.Error("results should show grading feedback")
	}
}

func TestModel_SubmitRefusedOnUnansweredLastQuestion(t *testing.T) {
	sink := &fakeSink{}
	m := newModelForQuiz(t, sink, &quiz.Quiz{
		ID: "q2",
		Questions: []quiz.Question{
			{Prompt: "Pick one", Options: []string{"A", "B"}, Answer: "A"},
			{Prompt: "Explain why.", Answer: "Because"},
		},
	})

	m, _ = update(m, keyPress('1'))
	m, _ = update(m, specialKey(tea.KeyEnter))
	if got := m.sess.CurrentIndex(); got != 1 {
		t.Fatalf("CurrentIndex = %d, want 1", got)
	}

	m, cmd := update(m, specialKey(tea.KeyEnter))
	if cmd != nil || m.phase != phaseTaking {
		t.Fatalf("phase = %v, want taking with no command", m.phase)
	}
	if !m.statusErr || m.status == "" {
		t.Error("expected an error status for unanswered last question")
	}
	if len(sink.calls) != 0 {
		t.Errorf("sink calls = %d, want 0", len(sink.calls))
	}

	// Typing then clearing the answer keeps submission blocked.
	m = typeText(m, "x")
	m, _ = update(m, specialKey(tea.KeyBackspace))
	if _, cmd = update(m, specialKey(tea.KeyEnter)); cmd != nil {
		t.Error("cleared answer should not submit")
	}

	m = typeText(m, "because")
	m, cmd = update(m, specialKey(tea.KeyEnter))
	if m.phase != phaseSubmitting || cmd == nil {
		t.Fatalf("phase = %v, want submitting once answered", m.phase)
	}
	m, _ = update(m, cmd())
	if m.sess.State() != session.StateSubmitted {
		t.Errorf("session state = %v, want submitted", m.sess.State())
	}
}

func TestModel_SubmitFailureReturnsToQuestion(t *testing.T) {
	sink := &fakeSink{err: errors.New("backend down")}
	m := newTestModel(t, sink)
	m.sess.SetAnswer(0, "Paris")
	m.sess.Next()
	m.sess.SetAnswer(1, "x")
	m.sess.Next()

	m, cmd := update(m, specialKey(tea.KeyEnter))
	m, _ = update(m, cmd())

	if m.phase != phaseTaking {
		t.Errorf("phase = %v, want taking", m.phase)
	}
	if !strings.Contains(m.status, "backend down") {
		t.Errorf("status = %q, want submit error", m.status)
	}
	if m.sess.State() != session.StateInProgress {
		t.Errorf("session state = %v, want in_progress", m.sess.State())
	}
}

func TestModel_Explain(t *testing.T) {
	m := newTestModel(t, &fakeSink{})
	m.sess.SetAnswer(0, "Rome")
	m.sess.Next()
	m.sess.SetAnswer(1, "x")
	m.sess.Next()
	m, cmd := update(m, specialKey(tea.KeyEnter))
	m, _ = update(m, cmd())

	m, cmd = update(m, keyPress('e'))
	if cmd == nil || !m.explaining {
		t.Fatal("expected explain command")
	}

	// A second request while one is running is ignored.
	if _, again := update(m, keyPress('e')); again != nil {
		t.Error("expected no second explain command")
	}

	m, _ = update(m, cmd())
	if got := m.explanations[0]; got != "Because Paris." {
		t.Errorf("explanation = %q", got)
	}
	if out := m.renderResults(); !strings.Contains(out, "Because Paris.") {
		t.Error("results should show the explanation")
	}
}

func TestModel_ResultsQuit(t *testing.T) {
	m := newTestModel(t, &fakeSink{})
	m.phase = phaseResults

	_, cmd := update(m, keyPress('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, &fakeSink{})
	_ = m.View()

	if out := m.renderQuestion(); !strings.Contains(out, "Capital of France?") {
		t.Error("question view should show the prompt")
	}

	small, _ := update(m, tea.WindowSizeMsg{Width: 20, Height: 5})
	_ = small.View()
}

func TestFormatPoints(t *testing.T) {
	if got := formatPoints(9); got != "9" {
		t.Errorf("formatPoints(9) = %q", got)
	}
	if got := formatPoints(1.8); got != "1.8" {
		t.Errorf("formatPoints(1.8) = %q", got)
	}
}
