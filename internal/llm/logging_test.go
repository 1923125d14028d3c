package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/dealbreaker/internal/store"
)

type recordingEventRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.events = append(r.events, data)
	return r.err
}

func TestLoggingProvider_RecordsSuccess(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"reply_message":"Deal?"}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 7},
	})
	repo := &recordingEventRepo{}
	p := WithLogging(mock, "mock", repo, nil)

	ctx := WithPurpose(context.Background(), "converse")
	_, err := p.Generate(ctx, Request{
		System:   "You are Vince.",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "mock", ev.Provider)
	assert.Equal(t, "mock", ev.Model)
	assert.Equal(t, "converse", ev.Purpose)
	assert.True(t, ev.Success)
	assert.Equal(t, 12, ev.InputTokens)
	assert.Equal(t, 7, ev.OutputTokens)
	assert.Contains(t, ev.RequestBody, "[system]\nYou are Vince.")
	assert.Contains(t, ev.RequestBody, "[user]\nhello")
	assert.Equal(t, `{"reply_message":"Deal?"}`, ev.ResponseBody)
}

func TestLoggingProvider_RecordsFailureAndSurvivesRepoError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{Err: errors.New("slow down")}})
	repo := &recordingEventRepo{err: errors.New("disk full")}
	p := WithLogging(mock, "mock", repo, nil)

	_, err := p.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	require.True(t, errors.As(err, &rl))

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Equal(t, "unknown", repo.events[0].Purpose)
	assert.Contains(t, repo.events[0].ErrorMessage, "slow down")
}

func TestNewProvider_MockSkipsLoggingWithoutRepo(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock", Retry: RetryConfig{MaxAttempts: 1}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	_, err = NewProvider(context.Background(), Config{Provider: "carrier-pigeon"}, nil, nil)
	assert.Error(t, err)
}
