package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// CollectedItem is the wire format a source adapter emits and the collector
// publishes to the queue, one per matching piece of content.
type CollectedItem struct {
	ID           string         `json:"id"`
	SourceType   SourceType     `json:"source_type"`
	SourceName   string         `json:"source_name"`
	ExternalID   string         `json:"external_id"`
	URL          string         `json:"url"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Author       string         `json:"author,omitempty"`
	PublishedAt  time.Time      `json:"published_at"`
	CollectedAt  time.Time      `json:"collected_at"`
	SearchPhrase string         `json:"search_phrase"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// DeriveID computes the canonical primary key used through the entire
// pipeline: the first 16 hex characters of SHA-256("{source_type}:{external_id}").
// Deterministic and stable across restarts by construction.
func DeriveID(sourceType SourceType, externalID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s", sourceType, externalID)))
	return hex.EncodeToString(sum[:])[:16]
}

// NewCollectedItem populates ID from SourceType/ExternalID and falls back to
// URL when the source provided no external identifier, per spec.
func NewCollectedItem(sourceType SourceType, sourceName, externalID, url string) *CollectedItem {
	if externalID == "" {
		externalID = url
	}
	return &CollectedItem{
		ID:         DeriveID(sourceType, externalID),
		SourceType: sourceType,
		SourceName: sourceName,
		ExternalID: externalID,
		URL:        url,
	}
}

// Validate enforces the CollectedItem invariants: published_at <= collected_at,
// url non-empty, title may be empty only for microblog items.
func (c *CollectedItem) Validate() error {
	if c.URL == "" {
		return &ValidationError{Field: "url", Message: "must not be empty"}
	}
	if c.Title == "" && c.SourceType != SourceMicroblog {
		return &ValidationError{Field: "title", Message: "must not be empty for non-microblog items"}
	}
	if c.PublishedAt.After(c.CollectedAt) {
		return &ValidationError{Field: "published_at", Message: "must not be after collected_at"}
	}
	if !c.SourceType.Valid() {
		return &ValidationError{Field: "source_type", Message: "unknown source type: " + string(c.SourceType)}
	}
	expected := c.ExternalID
	if expected == "" {
		expected = c.URL
	}
	if c.ID != "" && c.ID != DeriveID(c.SourceType, expected) {
		return &ValidationError{Field: "id", Message: "does not match derived id for source_type/external_id"}
	}
	return nil
}

// InWindow reports whether PublishedAt falls within [start, end], inclusive.
func (c *CollectedItem) InWindow(start, end time.Time) bool {
	p := c.PublishedAt
	return !p.Before(start) && !p.After(end)
}

// SearchRequest is the input that enters the collector and is forwarded,
// largely unmodified, into each active adapter's Search call.
type SearchRequest struct {
	Phrase    string     `json:"phrase"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	JobID     string     `json:"job_id"`
	Sources   []string   `json:"sources,omitempty"`
}

// Validate enforces the basic SearchRequest shape.
func (r *SearchRequest) Validate() error {
	if r.Phrase == "" {
		return &ValidationError{Field: "phrase", Message: "must not be empty"}
	}
	if r.EndDate.Before(r.StartDate) {
		return &ValidationError{Field: "end_date", Message: "must not be before start_date"}
	}
	return nil
}
