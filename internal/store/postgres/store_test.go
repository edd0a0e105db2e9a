package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sentinel-pipeline/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProcessedItem() *model.ProcessedItem {
	now := time.Now().UTC()
	item := model.ProcessedItem{
		ID:           "abc123",
		SourceType:   model.SourceNews,
		SourceName:   "Example News",
		ExternalID:   "ext-1",
		URL:          "https://example.com/a",
		Title:        "Title",
		Content:      "Body",
		PublishedAt:  now,
		CollectedAt:  now,
		SearchPhrase: "phrase",
		ProcessedAt:  now,
		Analysis: model.Analysis{
			Themes:         []model.Theme{{Name: "t1", Confidence: 0.5, Keywords: []string{"a", "b"}}},
			Sentiment:      model.SentimentNeutral,
			SentimentScore: 0,
			Summary:        "summary",
			KeyPoints:      []string{"p1", "p2"},
			Entities:       []string{"e1"},
		},
		RawStoragePath: "s3://bucket/raw/news/abc123.json",
	}
	return &item
}

func TestStore_Insert_CommitsAllStatementsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	item := sampleProcessedItem()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_items").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM themes WHERE item_id").WithArgs(item.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM entities WHERE item_id").WithArgs(item.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO themes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO entities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := New(db)
	err = store.Insert(context.Background(), item)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Insert_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	item := sampleProcessedItem()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_items").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	store := New(db)
	err = store.Insert(context.Background(), item)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Insert_AnalysisColumnRoundTrips(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	item := sampleProcessedItem()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO processed_items").
		WithArgs(
			item.ID, string(item.SourceType), item.SourceName, item.ExternalID, item.URL, item.Title, item.Content,
			item.Author, item.PublishedAt, item.CollectedAt, item.ProcessedAt, item.SearchPhrase,
			item.RawStoragePath, string(item.Analysis.Sentiment), item.Analysis.SentimentScore, item.Analysis.Summary,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM themes WHERE item_id").WithArgs(item.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM entities WHERE item_id").WithArgs(item.ID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO themes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO entities").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	store := New(db)
	err = store.Insert(context.Background(), item)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	raw, err := json.Marshal(item.Analysis)
	require.NoError(t, err)

	var roundTripped model.Analysis
	require.NoError(t, json.Unmarshal(raw, &roundTripped))
	assert.Equal(t, item.Analysis, roundTripped)
}

func TestStore_Exists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM processed_items WHERE id").
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	store := New(db)
	ok, err := store.Exists(context.Background(), "abc123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Exists_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT 1 FROM processed_items WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	store := New(db)
	ok, err := store.Exists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_HealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	store := New(db)
	assert.True(t, store.HealthCheck(context.Background()))
}
