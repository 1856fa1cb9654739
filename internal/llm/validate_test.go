package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func scoreSchema() *Schema {
	return &Schema{
		Name:        "test-score",
		Description: "A score with feedback",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"score":    map[string]any{"type": "number", "minimum": 0, "maximum": 10},
				"feedback": map[string]any{"type": "string"},
				"verdict":  map[string]any{"type": "string", "enum": []any{"correct", "partial", "wrong"}},
			},
			"required":             []any{"score", "feedback"},
			"additionalProperties": false,
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"score":8.5,"feedback":"Good","verdict":"partial"}`, false},
		{"optional omitted", `{"score":0,"feedback":""}`, false},
		{"missing required", `{"score":4}`, true},
		{"wrong type", `{"score":"nine","feedback":"x"}`, true},
		{"above maximum", `{"score":11,"feedback":"x"}`, true},
		{"enum violation", `{"score":3,"feedback":"x","verdict":"maybe"}`, true},
		{"extra property", `{"score":3,"feedback":"x","hint":"y"}`, true},
		{"malformed", `{score: 3}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(scoreSchema(), json.RawMessage(tt.raw))
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T (%v)", err, err)
			}
		})
	}
}

func TestValidateResponse_NilSchemaAcceptsAnything(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`plain text`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}
