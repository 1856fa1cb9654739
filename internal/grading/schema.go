package grading

import "github.com/abhisek/quizly/internal/llm"

// GradeSchema defines the JSON schema for LLM open-answer grading responses.
var GradeSchema = &llm.Schema{
	Name:        "open-answer-grade",
	Description: "Score and feedback for a student's free-text answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score": map[string]any{
				"type":        "number",
				"minimum":     0,
				"maximum":     MaxScore,
				"description": "How well the answer matches the expected answer, 0 to 10",
			},
			"feedback": map[string]any{
				"type":        "string",
				"description": "One paragraph on why the score was given, what was good, and what could be improved",
			},
		},
		"required":             []any{"score", "feedback"},
		"additionalProperties": false,
	},
}
