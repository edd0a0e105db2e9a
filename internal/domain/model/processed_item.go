package model

import "time"

// ProcessedItem is the result row persisted in the relational store: a
// CollectedItem (minus its free-form Metadata) joined with its Analysis and
// the location of its archived raw blob.
type ProcessedItem struct {
	ID             string    `json:"id"`
	SourceType     SourceType `json:"source_type"`
	SourceName     string    `json:"source_name"`
	ExternalID     string    `json:"external_id"`
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Author         string    `json:"author,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	CollectedAt    time.Time `json:"collected_at"`
	SearchPhrase   string    `json:"search_phrase"`
	ProcessedAt    time.Time `json:"processed_at"`
	Analysis       Analysis  `json:"analysis"`
	RawStoragePath string    `json:"raw_storage_path"`
}

// FromCollectedItem builds the persisted row's collection-time fields from a
// CollectedItem. Analysis, ProcessedAt, and RawStoragePath are filled in by
// the processor after archival and LLM analysis.
func FromCollectedItem(item *CollectedItem) *ProcessedItem {
	return &ProcessedItem{
		ID:           item.ID,
		SourceType:   item.SourceType,
		SourceName:   item.SourceName,
		ExternalID:   item.ExternalID,
		URL:          item.URL,
		Title:        item.Title,
		Content:      item.Content,
		Author:       item.Author,
		PublishedAt:  item.PublishedAt,
		CollectedAt:  item.CollectedAt,
		SearchPhrase: item.SearchPhrase,
	}
}
