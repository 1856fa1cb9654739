package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/abhisek/quizly/internal/llm"
)

// LLMConfig holds generation settings for the LLM grader and explainer.
type LLMConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultGraderConfig returns sensible defaults for grading.
func DefaultGraderConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: 0.2,
	}
}

// LLMGrader grades free-text answers with an LLM.
type LLMGrader struct {
	provider llm.Provider
	cfg      LLMConfig
}

// NewLLMGrader creates an LLM-based grader.
func NewLLMGrader(provider llm.Provider, cfg LLMConfig) *LLMGrader {
	return &LLMGrader{provider: provider, cfg: cfg}
}

// Grade asks the LLM to score req.UserAnswer against req.ExpectedAnswer.
func (g *LLMGrader) Grade(ctx context.Context, req Request) (*Grade, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeGrade)

	userMsg, err := buildGradeMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build grading prompt: %w", err)
	}

	resp, err := g.provider.Generate(ctx, llm.Request{
		System: gradeSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: userMsg},
		},
		Schema:      GradeSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM grading failed: %w", err)
	}

	var out Grade
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("failed to parse grading response: %w", err)
	}
	out.Score = ClampScore(out.Score)
	return &out, nil
}

const gradeSystemPrompt = `You are a soft, student-friendly grader.`

var gradeUserTemplate = template.Must(template.New("grade").Parse(`You are a kind and fair educational assistant grading an open-ended quiz answer.

Assess how well the student's answer matches the expected answer in meaning, coverage and relevance. Do not penalize grammar, length or phrasing.
{{if eq .AnswerType "long_answer"}}This is a long-form answer: reward partial coverage of the key points.
{{end}}
Question:
{{.Question}}

Expected Answer:
{{.ExpectedAnswer}}

Student Answer:
{{.UserAnswer}}

Respond with JSON only:
- "score": a number from 0 to 10, to one decimal place
- "feedback": one paragraph explaining the score, what was good, and what could be improved`))

func buildGradeMessage(req Request) (string, error) {
	var buf bytes.Buffer
	if err := gradeUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
