package grading

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizly/internal/quiz"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

// fakeClock hands out timers that only fire when the test says so.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) schedule(d time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return &fakeStopper{clock: c, t: t}
}

type fakeStopper struct {
	clock *fakeClock
	t     *fakeTimer
}

func (s *fakeStopper) Stop() bool {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	active := !s.t.stopped && !s.t.fired
	s.t.stopped = true
	return active
}

// fireAll runs every timer that is neither stopped nor fired.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingGrader struct {
	mu    sync.Mutex
	calls []Request
	score float64
	err   error
}

func (g *recordingGrader) Grade(_ context.Context, req Request) (*Grade, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return &Grade{Score: g.score, Feedback: "graded " + req.UserAnswer}, nil
}

func (g *recordingGrader) requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Request(nil), g.calls...)
}

func (g *recordingGrader) set(score float64, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.score, g.err = score, err
}

// blockingGrader holds each request until the test releases its answer.
type blockingGrader struct {
	mu      sync.Mutex
	calls   []string
	release map[string]chan Grade
}

func newBlockingGrader(answers ...string) *blockingGrader {
	g := &blockingGrader{release: make(map[string]chan Grade)}
	for _, a := range answers {
		g.release[a] = make(chan Grade, 1)
	}
	return g
}

func (g *blockingGrader) Grade(_ context.Context, req Request) (*Grade, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req.UserAnswer)
	ch := g.release[req.UserAnswer]
	g.mu.Unlock()

	out := <-ch
	return &out, nil
}

func (g *blockingGrader) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func testQuiz() *quiz.Quiz {
	return &quiz.Quiz{
		ID: "quiz-1",
		Questions: []quiz.Question{
			{Prompt: "Capital of France?", Type: quiz.TypeMultipleChoice, Options: []string{"Paris", "Rome"}, Answer: "Paris"},
			{Prompt: "Name the capital of France.", Type: quiz.TypeShortAnswer, Answer: "Paris is the capital"},
			{Prompt: "Explain photosynthesis.", Type: quiz.TypeLongAnswer, Answer: strings.Repeat("plants convert light ", 8)},
			{Prompt: "What is H2O?", Type: quiz.TypeShortAnswer, Answer: "Water"},
		},
	}
}

func newTestCoordinator(g Grader) (*Coordinator, *fakeClock) {
	clock := &fakeClock{}
	c := NewCoordinator(g, WithScheduler(clock.schedule))
	c.Reset(testQuiz())
	return c, clock
}

func TestCoordinator_DebounceSendsOnlyLastValue(t *testing.T) {
	g := &recordingGrader{score: 8}
	c, clock := newTestCoordinator(g)

	for _, v := range []string{"P", "Pa", "Par", "paris"} {
		c.OnAnswerEdited(1, v)
	}
	assert.Equal(t, 1, clock.active())
	assert.True(t, c.Pending(1))

	clock.fireAll()

	reqs := g.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, Request{
		Question:       "Name the capital of France.",
		ExpectedAnswer: "Paris is the capital",
		UserAnswer:     "paris",
		AnswerType:     quiz.TypeShortAnswer,
	}, reqs[0])
	assert.Equal(t, DefaultDebounce, clock.timers[0].d)

	res, ok := c.Result(1)
	require.True(t, ok)
	assert.Equal(t, 8.0, res.Score)
	assert.Equal(t, "graded paris", res.Feedback)
	assert.Equal(t, uint64(4), res.Revision)
	assert.False(t, c.Pending(1))
}

func TestCoordinator_ClassifiesByExpectedAnswerLength(t *testing.T) {
	g := &recordingGrader{score: 5}
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(2, "light to sugar")
	clock.fireAll()

	reqs := g.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, quiz.TypeLongAnswer, reqs[0].AnswerType)
}

func TestCoordinator_IgnoresObjectiveAndOutOfRange(t *testing.T) {
	g := &recordingGrader{score: 5}
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(0, "Paris")
	c.OnAnswerEdited(-1, "x")
	c.OnAnswerEdited(9, "x")

	assert.Zero(t, clock.active())
	clock.fireAll()
	assert.Empty(t, g.requests())
}

func TestCoordinator_BlankEditCancelsTimer(t *testing.T) {
	g := &recordingGrader{score: 5}
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(1, "Paris")
	c.OnAnswerEdited(1, "")

	assert.False(t, c.Pending(1))
	clock.fireAll()
	assert.Empty(t, g.requests())
}

func TestCoordinator_FailureKeepsPriorResult(t *testing.T) {
	g := &recordingGrader{score: 7}
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(3, "water")
	clock.fireAll()

	g.set(0, errors.New("grading service down"))
	c.OnAnswerEdited(3, "ice")
	clock.fireAll()

	require.Len(t, g.requests(), 2)
	res, ok := c.Result(3)
	require.True(t, ok)
	assert.Equal(t, 7.0, res.Score)
	assert.Equal(t, uint64(1), res.Revision)
}

func TestCoordinator_NilGradeKeepsPriorResult(t *testing.T) {
	var calls int
	g := GraderFunc(func(context.Context, Request) (*Grade, error) {
		calls++
		if calls == 1 {
			return &Grade{Score: 6, Feedback: "ok"}, nil
		}
		return nil, nil
	})
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(3, "water")
	clock.fireAll()
	c.OnAnswerEdited(3, "ice")
	clock.fireAll()

	assert.Equal(t, 2, calls)
	res, ok := c.Result(3)
	require.True(t, ok)
	assert.Equal(t, 6.0, res.Score)
	assert.Zero(t, c.InFlight())
}

func TestCoordinator_ClampsScores(t *testing.T) {
	g := &recordingGrader{score: 14}
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(3, "water")
	clock.fireAll()

	res, _ := c.Result(3)
	assert.Equal(t, MaxScore, res.Score)
}

func TestCoordinator_LastResolvedWins(t *testing.T) {
	g := newBlockingGrader("first", "second")
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(1, "first")
	go clock.fireAll()
	require.Eventually(t, func() bool { return g.callCount() == 1 }, time.Second, time.Millisecond)

	c.OnAnswerEdited(1, "second")
	sent := c.GradeAllPending(context.Background(), map[int]string{1: "second"})
	assert.Equal(t, 1, sent)
	require.Eventually(t, func() bool { return g.callCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 2, c.InFlight())

	g.release["second"] <- Grade{Score: 9, Feedback: "newer"}
	require.Eventually(t, func() bool {
		res, ok := c.Result(1)
		return ok && res.Feedback == "newer"
	}, time.Second, time.Millisecond)

	// The older request resolves last and overwrites the newer grade.
	g.release["first"] <- Grade{Score: 2, Feedback: "older"}
	c.Wait()

	res, ok := c.Result(1)
	require.True(t, ok)
	assert.Equal(t, 2.0, res.Score)
	assert.Equal(t, "older", res.Feedback)
	assert.Equal(t, uint64(1), res.Revision)
}

func TestCoordinator_GradeAllPending(t *testing.T) {
	g := &recordingGrader{score: 6}
	c, clock := newTestCoordinator(g)

	// Question 3 is graded and fresh.
	c.OnAnswerEdited(3, "water")
	clock.fireAll()

	// Question 1 was graded, then edited again: stale with a pending timer.
	c.OnAnswerEdited(1, "Paris")
	clock.fireAll()
	c.OnAnswerEdited(1, "Paris, France")

	// Question 2 was typed but its timer has not fired.
	c.OnAnswerEdited(2, "light")

	answers := map[int]string{
		0: "Rome",
		1: "Paris, France",
		2: "light",
		3: "water",
	}
	sent := c.GradeAllPending(context.Background(), answers)
	assert.Equal(t, 2, sent)
	assert.False(t, c.Pending(1))
	assert.False(t, c.Pending(2))
	assert.Zero(t, clock.active())

	c.Wait()

	reqs := g.requests()
	require.Len(t, reqs, 4)
	var regraded []string
	for _, r := range reqs[2:] {
		regraded = append(regraded, r.UserAnswer)
	}
	assert.ElementsMatch(t, []string{"Paris, France", "light"}, regraded)

	results := c.Results()
	assert.Len(t, results, 3)
	assert.Equal(t, uint64(2), results[1].Revision)
	assert.NotContains(t, results, 0)
}

func TestCoordinator_GradeAllPendingSkipsUnanswered(t *testing.T) {
	g := &recordingGrader{score: 6}
	c, _ := newTestCoordinator(g)

	sent := c.GradeAllPending(context.Background(), map[int]string{1: quiz.NotAnswered, 2: ""})
	assert.Zero(t, sent)
	c.Wait()
	assert.Empty(t, g.requests())
}

func TestCoordinator_ResetDiscardsInFlight(t *testing.T) {
	g := newBlockingGrader("water")
	c, clock := newTestCoordinator(g)

	c.OnAnswerEdited(3, "water")
	go clock.fireAll()
	require.Eventually(t, func() bool { return g.callCount() == 1 }, time.Second, time.Millisecond)

	c.Reset(testQuiz())
	g.release["water"] <- Grade{Score: 10}
	c.Wait()

	_, ok := c.Result(3)
	assert.False(t, ok)
}

func TestCoordinator_RealTimer(t *testing.T) {
	g := &recordingGrader{score: 3}
	c := NewCoordinator(g, WithDebounce(5*time.Millisecond))
	c.Reset(testQuiz())

	c.OnAnswerEdited(3, "h2o")

	require.Eventually(t, func() bool {
		_, ok := c.Result(3)
		return ok
	}, time.Second, time.Millisecond)
	assert.Len(t, g.requests(), 1)
}
