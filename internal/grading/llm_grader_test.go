package grading

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizly/internal/llm"
	"github.com/abhisek/quizly/internal/quiz"
)

func TestLLMGrader_Grade(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"score":8,"feedback":"Correct idea, missing detail."}`),
	})
	g := NewLLMGrader(mock, DefaultGraderConfig())

	grade, err := g.Grade(context.Background(), Request{
		Question:       "Name the capital of France.",
		ExpectedAnswer: "Paris is the capital",
		UserAnswer:     "paris",
		AnswerType:     quiz.TypeShortAnswer,
	})
	require.NoError(t, err)
	assert.Equal(t, &Grade{Score: 8, Feedback: "Correct idea, missing detail."}, grade)

	req, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, gradeSystemPrompt, req.System)
	assert.Same(t, GradeSchema, req.Schema)
	assert.Equal(t, 500, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	msg := req.Messages[0].Content
	assert.Contains(t, msg, "Question:\nName the capital of France.")
	assert.Contains(t, msg, "Student Answer:\nparis")
	assert.NotContains(t, msg, "long-form")
}

func TestLLMGrader_LongAnswerPrompt(t *testing.T) {
	msg, err := buildGradeMessage(Request{Question: "q", ExpectedAnswer: "e", UserAnswer: "u", AnswerType: quiz.TypeLongAnswer})
	require.NoError(t, err)
	assert.Contains(t, msg, "long-form answer")
}

func TestLLMGrader_RejectsIncompleteResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"score":0.9}`),
	})
	g := NewLLMGrader(mock, DefaultGraderConfig())

	_, err := g.Grade(context.Background(), Request{Question: "q", ExpectedAnswer: "e", UserAnswer: "u"})
	var inv *llm.ErrInvalidResponse
	require.ErrorAs(t, err, &inv)
}

func TestLLMExplainer_Explain(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage("  Mars looks red because of iron oxide on its surface.\n"),
	})
	e := NewLLMExplainer(mock, DefaultExplainerConfig())

	got, err := e.Explain(context.Background(), ExplainRequest{
		Question: "Which planet is known as the Red Planet?",
		Answer:   "Mars",
		Choices:  []string{"Earth", "Mars", "Venus"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mars looks red because of iron oxide on its surface.", got)

	req, _ := mock.LastCall()
	assert.Nil(t, req.Schema)
	assert.Equal(t, explainSystemPrompt, req.System)
	assert.Contains(t, req.Messages[0].Content, "Choices: Earth, Mars, Venus")
}

func TestLLMExplainer_FreeTextHasNoChoices(t *testing.T) {
	msg := buildExplainMessage(ExplainRequest{Question: "Why is the sky blue?", Answer: "Rayleigh scattering"})
	assert.False(t, strings.Contains(msg, "Choices:"))
}

func TestLLMExplainer_EmptyResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("   ")})
	e := NewLLMExplainer(mock, DefaultExplainerConfig())

	_, err := e.Explain(context.Background(), ExplainRequest{Question: "q", Answer: "a"})
	require.Error(t, err)
}
