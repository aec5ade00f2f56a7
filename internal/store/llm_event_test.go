package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMEvents_AppendQueryGet(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku", Purpose: "answer", Images: 1, InputTokens: 100, OutputTokens: 10, LatencyMs: 200, Success: true, RequestBody: "[user]\nread", ResponseBody: `{"digits":"42"}`},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "recognize", InputTokens: 80, OutputTokens: 5, LatencyMs: 400, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "recognize", LatencyMs: 50, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "recognize", got[0].Purpose, "newest first")
	assert.Zero(t, got[0].Images)
	assert.False(t, got[0].Success)
	assert.Equal(t, "rate limited", got[0].ErrorMessage)
	assert.Greater(t, got[0].Sequence, got[1].Sequence)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: got[1].Sequence})
	require.NoError(t, err)
	assert.Len(t, after, 1)

	first := got[2]
	one, err := repo.GetLLMEvent(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, one)
	assert.Equal(t, "claude-haiku", one.Model)
	assert.Equal(t, 1, one.Images)
	assert.Equal(t, `{"digits":"42"}`, one.ResponseBody)
	assert.WithinDuration(t, time.Now(), one.Timestamp, time.Minute)

	none, err := repo.GetLLMEvent(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorContains(t, err, "9999")
	assert.Nil(t, none)
}

func TestLLMEvents_TimeWindow(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := &eventRepo{drv: s.drv, seq: s.seq, now: func() time.Time { return now }}
	ctx := context.Background()

	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "a", Success: true}))
	now = now.Add(time.Hour)
	require.NoError(t, repo.AppendLLMRequest(ctx, LLMRequestEventData{Purpose: "b", Success: true}))

	got, err := repo.QueryLLMEvents(ctx, QueryOpts{From: now.Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Purpose)

	got, err = repo.QueryLLMEvents(ctx, QueryOpts{To: now.Add(-time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Purpose)
}

func TestLLMEvents_Usage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, e := range []LLMRequestEventData{
		{Model: "m1", Purpose: "recognize", InputTokens: 10, OutputTokens: 1, LatencyMs: 100, Success: true},
		{Model: "m1", Purpose: "recognize", InputTokens: 20, OutputTokens: 2, LatencyMs: 300, Success: true},
		{Model: "m2", Purpose: "recognize", InputTokens: 5, OutputTokens: 5, LatencyMs: 10, Success: false},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMUsageStats{Purpose: "recognize", Calls: 1, InputTokens: 5, OutputTokens: 5, AvgLatencyMs: 10}, byPurpose[0])
	assert.Equal(t, LLMUsageStats{Purpose: "recognize", Calls: 2, InputTokens: 30, OutputTokens: 3, AvgLatencyMs: 200}, byPurpose[1])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []LLMModelUsage{{Model: "m1", Calls: 2, InputTokens: 30, OutputTokens: 3}}, byModel)
}
