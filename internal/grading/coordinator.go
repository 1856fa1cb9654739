package grading

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/quizly/internal/quiz"
)

// DefaultDebounce is the quiet period after the last edit before an answer
// is sent for grading.
const DefaultDebounce = time.Second

// Stopper cancels a scheduled callback.
type Stopper interface {
	// Stop reports whether the callback was prevented from running.
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler func(d time.Duration, f func()) Stopper

func afterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDebounce sets the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithScheduler replaces time.AfterFunc as the debounce timer source.
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.schedule = s }
}

// WithLogger sets the logger used for grading failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

type timer struct {
	stop Stopper
	seq  uint64
}

// Coordinator debounces live edits of free-text answers into grading
// requests and caches the results per question index.
//
// At most one unfired timer exists per index. Requests already in flight
// are never canceled: whichever resolves last owns the cached result.
type Coordinator struct {
	grader   Grader
	debounce time.Duration
	schedule Scheduler
	logger   *slog.Logger

	mu        sync.Mutex
	idle      *sync.Cond
	quiz      *quiz.Quiz
	gen       uint64
	timerSeq  uint64
	revisions map[int]uint64
	timers    map[int]timer
	results   map[int]Result
	inFlight  int
}

// NewCoordinator creates a Coordinator that sends answers to grader.
func NewCoordinator(grader Grader, opts ...Option) *Coordinator {
	c := &Coordinator{
		grader:    grader,
		debounce:  DefaultDebounce,
		schedule:  afterFunc,
		revisions: make(map[int]uint64),
		timers:    make(map[int]timer),
		results:   make(map[int]Result),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Reset cancels every unfired timer, clears cached results and binds the
// coordinator to q. Requests still in flight for the previous quiz finish
// but their results are discarded.
func (c *Coordinator) Reset(q *quiz.Quiz) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range c.timers {
		t.stop.Stop()
	}
	c.timers = make(map[int]timer)
	c.revisions = make(map[int]uint64)
	c.results = make(map[int]Result)
	c.quiz = q
	c.gen++
}

// Stop cancels every unfired timer without clearing results.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.timers {
		c.stopTimer(i)
	}
}

// OnAnswerEdited records an edit to a free-text answer. Any unfired timer for
// the index is canceled and, unless the answer is now blank, a new one is
// scheduled. Edits to objective questions are ignored.
func (c *Coordinator) OnAnswerEdited(index int, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q, ok := c.subjective(index)
	if !ok {
		return
	}

	c.revisions[index]++
	c.stopTimer(index)

	if !quiz.Answered(value) {
		return
	}

	c.timerSeq++
	seq, gen, rev := c.timerSeq, c.gen, c.revisions[index]
	req := newRequest(q, value)
	stop := c.schedule(c.debounce, func() {
		c.fire(index, seq, gen, rev, req)
	})
	c.timers[index] = timer{stop: stop, seq: seq}
}

// GradeAllPending dispatches a grading request now for every answered
// free-text question whose result is missing or older than its latest edit.
// It does not wait for the requests to finish and returns how many were
// sent. Cancellation of ctx does not abort them.
func (c *Coordinator) GradeAllPending(ctx context.Context, answers map[int]string) int {
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiz == nil {
		return 0
	}

	sent := 0
	for i, q := range c.quiz.Questions {
		value := answers[i]
		if q.Objective() || !quiz.Answered(value) {
			continue
		}

		rev := c.revisions[i]
		if res, ok := c.results[i]; ok && res.Revision >= rev {
			continue
		}

		c.stopTimer(i)
		c.inFlight++
		sent++
		go c.grade(ctx, c.gen, i, rev, newRequest(q, value))
	}
	return sent
}

// Result returns the cached result for index.
func (c *Coordinator) Result(index int) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[index]
	return res, ok
}

// Results returns a copy of all cached results.
func (c *Coordinator) Results() map[int]Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]Result, len(c.results))
	for i, r := range c.results {
		out[i] = r
	}
	return out
}

// Pending reports whether an unfired timer exists for index.
func (c *Coordinator) Pending(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.timers[index]
	return ok
}

// InFlight returns the number of grading requests awaiting a response.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Wait blocks until no grading request is in flight. Unfired timers are not
// waited for.
func (c *Coordinator) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inFlight > 0 {
		c.idle.Wait()
	}
}

func (c *Coordinator) fire(index int, seq, gen, rev uint64, req Request) {
	c.mu.Lock()
	t, ok := c.timers[index]
	if !ok || t.seq != seq {
		c.mu.Unlock()
		return
	}
	delete(c.timers, index)
	c.inFlight++
	c.mu.Unlock()

	c.grade(context.Background(), gen, index, rev, req)
}

func (c *Coordinator) grade(ctx context.Context, gen uint64, index int, rev uint64, req Request) {
	defer c.done()

	g, err := c.grader.Grade(ctx, req)
	if err == nil && g == nil {
		err = ErrNoGrade
	}
	if err != nil {
		c.logger.Warn("grading failed", "question", index+1, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.results[index] = Result{
		Score:    ClampScore(g.Score),
		Feedback: g.Feedback,
		Revision: rev,
		GradedAt: time.Now(),
	}
}

func (c *Coordinator) done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight--
	if c.inFlight == 0 {
		c.idle.Broadcast()
	}
}

// stopTimer cancels the unfired timer for index. Caller holds c.mu.
func (c *Coordinator) stopTimer(index int) {
	if t, ok := c.timers[index]; ok {
		t.stop.Stop()
		delete(c.timers, index)
	}
}

func (c *Coordinator) subjective(index int) (quiz.Question, bool) {
	if c.quiz == nil || index < 0 || index >= len(c.quiz.Questions) {
		return quiz.Question{}, false
	}
	q := c.quiz.Questions[index]
	return q, !q.Objective()
}

func newRequest(q quiz.Question, answer string) Request {
	return Request{
		Question:       q.Prompt,
		ExpectedAnswer: q.Answer,
		UserAnswer:     answer,
		AnswerType:     quiz.AnswerKind(q.Answer),
	}
}
