package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/quizly/internal/llm"
)

// DefaultExplainerConfig returns sensible defaults for explanations.
func DefaultExplainerConfig() LLMConfig {
	return LLMConfig{
		MaxTokens:   150,
		Temperature: 0.3,
	}
}

// LLMExplainer explains correct answers with an LLM. The response is plain
// text, not JSON.
type LLMExplainer struct {
	provider llm.Provider
	cfg      LLMConfig
}

// NewLLMExplainer creates an LLM-based explainer.
func NewLLMExplainer(provider llm.Provider, cfg LLMConfig) *LLMExplainer {
	return &LLMExplainer{provider: provider, cfg: cfg}
}

// Explain returns a one or two sentence explanation of why req.Answer is
// correct.
func (e *LLMExplainer) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeExplain)

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: explainSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildExplainMessage(req)},
		},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM explanation failed: %w", err)
	}

	explanation := strings.TrimSpace(string(resp.Content))
	if explanation == "" {
		return "", &llm.ErrInvalidResponse{Content: resp.Content, Err: fmt.Errorf("empty explanation")}
	}
	return explanation, nil
}

const explainSystemPrompt = `You are an educational assistant that explains correct quiz answers clearly.`

func buildExplainMessage(req ExplainRequest) string {
	var b strings.Builder

	b.WriteString("Given a question and its correct answer, write a brief (1-2 sentence) explanation of why that answer is correct.\n")
	b.WriteString("If choices are provided, contrast the correct choice with the incorrect ones.\n\n")
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Correct Answer: %s\n", req.Answer)
	if len(req.Choices) > 0 {
		fmt.Fprintf(&b, "Choices: %s\n", strings.Join(req.Choices, ", "))
	}

	b.WriteString("\nOutput ONLY the explanation. No intro, no formatting, no JSON.")
	return b.String()
}
