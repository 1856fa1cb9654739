package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/quizly/internal/store"
)

type recordingEvents struct {
	store.LLMEventRepo
	got []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.got = append(r.got, data)
	return r.err
}

func TestLogging_RecordsSuccess(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"score":6,"feedback":"ok"}`),
		Usage:   Usage{InputTokens: 80, OutputTokens: 9},
	})
	p := WithLogging(mock, events, nil)

	ctx := WithPurpose(context.Background(), PurposeGrade)
	_, err := p.Generate(ctx, Request{
		System:   "You are a soft, student-friendly grader.",
		Messages: []Message{{Role: RoleUser, Content: "Grade this."}},
		Schema:   scoreSchema(),
	})
	require.NoError(t, err)

	require.Len(t, events.got, 1)
	e := events.got[0]
	assert.Equal(t, PurposeGrade, e.Purpose)
	assert.Equal(t, "mock", e.Model)
	assert.True(t, e.Success)
	assert.Equal(t, 80, e.InputTokens)
	assert.Contains(t, e.RequestBody, "[system]\nYou are a soft, student-friendly grader.")
	assert.Contains(t, e.RequestBody, "[schema: test-score]")
	assert.JSONEq(t, `{"score":6,"feedback":"ok"}`, e.ResponseBody)
}

func TestLogging_RecordsFailureAndIgnoresStoreErrors(t *testing.T) {
	events := &recordingEvents{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	p := WithLogging(mock, events, nil)

	_, err := p.Generate(context.Background(), Request{})
	var un *ErrProviderUnavailable
	require.ErrorAs(t, err, &un)

	require.Len(t, events.got, 1)
	assert.False(t, events.got[0].Success)
	assert.Equal(t, "unknown", events.got[0].Purpose)
	assert.Contains(t, events.got[0].ErrorMessage, "down")
}

func TestMockProvider_FallbackAndSchema(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var un *ErrProviderUnavailable
	require.ErrorAs(t, err, &un)

	mock.SetFallback(MockResponse{Content: json.RawMessage(`{"score":12,"feedback":"too high"}`)})
	_, err = mock.Generate(context.Background(), Request{Schema: scoreSchema()})
	var inv *ErrInvalidResponse
	require.ErrorAs(t, err, &inv)

	last, ok := mock.LastCall()
	require.True(t, ok)
	assert.Equal(t, "test-score", last.Schema.Name)
	assert.Equal(t, 2, mock.CallCount())
}

func TestConfigFromEnv(t *testing.T) {
	for _, k := range []string{"GROQ_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}

	t.Run("discovers groq first", func(t *testing.T) {
		t.Setenv("GROQ_API_KEY", "gsk")
		t.Setenv("OPENAI_API_KEY", "sk")

		cfg := ConfigFromEnv()
		assert.Equal(t, "groq", cfg.Provider)
		assert.Equal(t, "gemma2-9b-it", cfg.Groq.Model)
		require.NoError(t, cfg.Validate())
	})

	t.Run("explicit provider and overrides", func(t *testing.T) {
		t.Setenv("QUIZLY_LLM_PROVIDER", "openai")
		t.Setenv("QUIZLY_OPENAI_API_KEY", "sk-test")
		t.Setenv("QUIZLY_OPENAI_MODEL", "gpt-4.1-mini")
		t.Setenv("QUIZLY_LLM_TIMEOUT", "5s")

		cfg := ConfigFromEnv()
		assert.Equal(t, "openai", cfg.Provider)
		assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
		assert.Equal(t, "5s", cfg.Timeout.String())
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("QUIZLY_LLM_PROVIDER", "anthropic")
		t.Setenv("QUIZLY_ANTHROPIC_API_KEY", "")

		err := ConfigFromEnv().Validate()
		require.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"

	p, err := NewProvider(context.Background(), cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	cfg.Provider = "llama-local"
	_, err = NewProvider(context.Background(), cfg, nil, nil)
	require.Error(t, err)
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gemma2-9b-it")
	require.NotNil(t, c)
	assert.InDelta(t, 0.4, c.Cost(1_000_000, 1_000_000), 1e-9)
	assert.Nil(t, LookupCost("unknown-model"))
}
