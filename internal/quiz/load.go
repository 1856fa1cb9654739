package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UnmarshalJSON accepts "choices" as an alias for "options", which is what
// the generation backend emits.
func (q *Question) UnmarshalJSON(data []byte) error {
	type plain Question
	var raw struct {
		plain
		Choices []string `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*q = Question(raw.plain)
	if len(q.Options) == 0 && len(raw.Choices) > 0 {
		q.Options = raw.Choices
	}
	return nil
}

// UnmarshalJSON tolerates numeric quiz IDs and the "topic_name" spelling.
func (q *Quiz) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"quiz_id"`
		Topic     string          `json:"topic"`
		TopicName string          `json:"topic_name"`
		Questions []Question      `json:"questions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	q.ID = id
	q.Topic = raw.Topic
	if q.Topic == "" {
		q.Topic = raw.TopicName
	}
	q.Questions = raw.Questions
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("quiz_id must be a string or number: %w", err)
	}
	return n.String(), nil
}

// Decode reads a quiz from r. Both a full quiz object and a bare array of
// questions (the raw generation result) are accepted.
func Decode(r io.Reader) (*Quiz, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read quiz: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decode quiz: empty input")
	}

	if trimmed[0] == '[' {
		var questions []Question
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		return &Quiz{Questions: questions}, nil
	}

	var q Quiz
	if err := json.Unmarshal(trimmed, &q); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return &q, nil
}

// LoadFile reads a quiz from a JSON file.
func LoadFile(path string) (*Quiz, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quiz file: %w", err)
	}
	defer f.Close()

	q, err := Decode(f)
	if err != nil {
		return nil, err
	}
	if q.Topic == "" {
		q.Topic = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return q, nil
}

// Placeholder returns the quiz shown when no generated quiz is available.
func Placeholder() *Quiz {
	return &Quiz{
		Topic: "Placeholder Quiz",
		Questions: []Question{
			{
				Prompt:  "What is the capital of France?",
				Type:    TypeMultipleChoice,
				Options: []string{"Paris", "Berlin", "Madrid"},
				Answer:  "Paris",
			},
			{
				Prompt:  "What is 2 + 2?",
				Type:    TypeMultipleChoice,
				Options: []string{"3", "4", "5"},
				Answer:  "4",
			},
			{
				Prompt:  "Which planet is known as the Red Planet?",
				Type:    TypeMultipleChoice,
				Options: []string{"Earth", "Mars", "Venus"},
				Answer:  "Mars",
			},
		},
	}
}
