package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizly/internal/grading"
	"github.com/abhisek/quizly/internal/quiz"
)

type captured struct {
	method string
	path   string
	query  string
	body   map[string]any
}

func newTestClient(t *testing.T, status int, response string) (*Client, *captured) {
	t.Helper()
	got := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.query = r.URL.RawQuery
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			_ = json.Unmarshal(raw, &got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), got
}

func TestClient_UpdateAnswers(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"message":"Quiz answers updated successfully"}`)

	err := c.UpdateAnswers(context.Background(), "42", []string{"A", quiz.NotAnswered})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/update_answers", got.path)
	assert.Equal(t, map[string]any{
		"quiz_id":      "42",
		"your_answers": []any{"A", "Not Answered"},
	}, got.body)
}

func TestClient_Grade(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"score":8,"feedback":"Nice."}`)

	g, err := c.Grade(context.Background(), grading.Request{
		Question:       "Capital?",
		ExpectedAnswer: "Paris is the capital",
		UserAnswer:     "paris",
		AnswerType:     quiz.TypeShortAnswer,
	})
	require.NoError(t, err)
	assert.Equal(t, &grading.Grade{Score: 8, Feedback: "Nice."}, g)
	assert.Equal(t, "/grade-open-answer", got.path)
	assert.Equal(t, map[string]any{
		"question":        "Capital?",
		"expected_answer": "Paris is the capital",
		"user_answer":     "paris",
		"answer_type":     "short_answer",
	}, got.body)
}

func TestClient_ExplainSendsNullChoices(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"explanation":"Because."}`)

	out, err := c.Explain(context.Background(), grading.ExplainRequest{Question: "Why?", Answer: "So."})
	require.NoError(t, err)
	assert.Equal(t, "Because.", out)
	assert.Equal(t, "/explain-answer", got.path)
	assert.Contains(t, got.body, "choices")
	assert.Nil(t, got.body["choices"])
}

func TestClient_StatusError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusBadRequest, `{"error":"number of answers does not match number of questions"}`)

	err := c.UpdateAnswers(context.Background(), "42", []string{"A"})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, "update answers", se.Op)
	assert.Contains(t, se.Body, "does not match")
	assert.Contains(t, err.Error(), "HTTP 400")
}

func TestClient_RegisterAndGet(t *testing.T) {
	c, got := newTestClient(t, http.StatusCreated, `{"quiz_id":"abc"}`)

	id, err := c.RegisterQuiz(context.Background(), quiz.Placeholder())
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
	assert.Equal(t, "/quizzes", got.path)
	assert.Equal(t, "Placeholder Quiz", got.body["topic"])

	c, got = newTestClient(t, http.StatusOK, `{"quiz":{"quiz_id":"abc","topic":"T","questions":[{"question":"Q","answer":"A"}]},"your_answers":["A"]}`)
	sq, err := c.GetQuiz(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/quizzes/abc", got.path)
	assert.Equal(t, "abc", sq.Quiz.ID)
	assert.Equal(t, []string{"A"}, sq.Answers)
}

func TestClient_ListQuizzes(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK,
		`[{"quiz":{"quiz_id":"a","topic":"World History","questions":[{"question":"Q","answer":"A"}]},"your_answers":["A"],"created_at":"2026-01-02T03:04:05Z"}]`)

	quizzes, err := c.ListQuizzes(context.Background(), "World History")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/quizzes", got.path)
	assert.Equal(t, "topic=World+History", got.query)
	require.Len(t, quizzes, 1)
	assert.Equal(t, "a", quizzes[0].Quiz.ID)
	assert.Equal(t, []string{"A"}, quizzes[0].Answers)
	assert.Equal(t, 2026, quizzes[0].CreatedAt.Year())

	_, err = c.ListQuizzes(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got.query)
}

func TestClient_ListQuizzesNoneFound(t *testing.T) {
	c, _ := newTestClient(t, http.StatusNotFound, `{"error":"No quizzes found for this topic"}`)

	quizzes, err := c.ListQuizzes(context.Background(), "Art")
	require.NoError(t, err)
	assert.Empty(t, quizzes)
}

func TestClient_DeleteQuiz(t *testing.T) {
	c, got := newTestClient(t, http.StatusOK, `{"message":"Quiz deleted successfully."}`)

	require.NoError(t, c.DeleteQuiz(context.Background(), "q 1"))
	assert.Equal(t, http.MethodDelete, got.method)
	assert.Equal(t, "/quizzes/q 1", got.path)

	c, _ = newTestClient(t, http.StatusNotFound, `{"error":"quiz \"x\": not found"}`)
	err := c.DeleteQuiz(context.Background(), "x")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestClient_DecodeError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `not json`)

	_, err := c.Grade(context.Background(), grading.Request{})
	require.Error(t, err)
	var se *StatusError
	assert.False(t, errors.As(err, &se))
}

func TestClient_Unreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	require.Error(t, c.Health(context.Background()))
}
