package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveID_Deterministic(t *testing.T) {
	a := DeriveID(SourceNews, "https://example.com/a")
	b := DeriveID(SourceNews, "https://example.com/a")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestDeriveID_DiffersBySourceType(t *testing.T) {
	a := DeriveID(SourceNews, "same-id")
	b := DeriveID(SourceFeed, "same-id")
	assert.NotEqual(t, a, b)
}

func TestNewCollectedItem_FallsBackToURLWhenExternalIDAbsent(t *testing.T) {
	item := NewCollectedItem(SourceFeed, "Example Feed", "", "https://example.com/story")
	assert.Equal(t, "https://example.com/story", item.ExternalID)
	assert.Equal(t, DeriveID(SourceFeed, "https://example.com/story"), item.ID)
}

func TestCollectedItem_Validate(t *testing.T) {
	now := time.Now().UTC()
	base := func() *CollectedItem {
		item := NewCollectedItem(SourceNews, "Example News", "ext-1", "https://example.com/1")
		item.Title = "A headline"
		item.PublishedAt = now.Add(-time.Hour)
		item.CollectedAt = now
		return item
	}

	t.Run("valid item passes", func(t *testing.T) {
		require.NoError(t, base().Validate())
	})

	t.Run("empty url rejected", func(t *testing.T) {
		item := base()
		item.URL = ""
		assert.Error(t, item.Validate())
	})

	t.Run("empty title rejected for non-microblog", func(t *testing.T) {
		item := base()
		item.Title = ""
		assert.Error(t, item.Validate())
	})

	t.Run("empty title allowed for microblog", func(t *testing.T) {
		item := base()
		item.SourceType = SourceMicroblog
		item.ID = DeriveID(SourceMicroblog, item.ExternalID)
		item.Title = ""
		assert.NoError(t, item.Validate())
	})

	t.Run("published after collected rejected", func(t *testing.T) {
		item := base()
		item.PublishedAt = now.Add(time.Hour)
		assert.Error(t, item.Validate())
	})
}

func TestCollectedItem_InWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	item := &CollectedItem{PublishedAt: time.Date(2024, 1, 4, 12, 0, 0, 0, time.UTC)}
	assert.True(t, item.InWindow(start, end))

	item.PublishedAt = start
	assert.True(t, item.InWindow(start, end), "window bounds are inclusive")

	item.PublishedAt = end
	assert.True(t, item.InWindow(start, end), "window bounds are inclusive")

	item.PublishedAt = end.Add(time.Second)
	assert.False(t, item.InWindow(start, end))
}

func TestCollectedItem_RoundTripPreservesDerivedID(t *testing.T) {
	item := NewCollectedItem(SourceForum, "r/golang", "t3_abc123", "https://forum.example/abc123")
	item.Title = "Thread title"
	item.PublishedAt = time.Now().UTC()
	item.CollectedAt = item.PublishedAt

	raw, err := json.Marshal(item)
	require.NoError(t, err)

	var roundTripped CollectedItem
	require.NoError(t, json.Unmarshal(raw, &roundTripped))

	assert.Equal(t, DeriveID(roundTripped.SourceType, roundTripped.ExternalID), roundTripped.ID)
	assert.Equal(t, item.ID, roundTripped.ID)
}

func TestSearchRequest_Validate(t *testing.T) {
	start := time.Now()
	req := SearchRequest{Phrase: "climate", StartDate: start, EndDate: start.Add(time.Hour)}
	require.NoError(t, req.Validate())

	req.Phrase = ""
	assert.Error(t, req.Validate())

	req.Phrase = "climate"
	req.EndDate = start.Add(-time.Hour)
	assert.Error(t, req.Validate())
}
