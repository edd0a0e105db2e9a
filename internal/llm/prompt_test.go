package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAnalysisJSON = `{
  "themes": [
    {"name": "market reaction", "confidence": 0.8, "keywords": ["stocks", "rally"]}
  ],
  "sentiment": "positive",
  "sentiment_score": 0.6,
  "summary": "Markets rallied on the news.",
  "key_points": ["Stocks rose", "Investors optimistic"],
  "entities": ["NYSE"]
}`

func TestParseAnalysisResponse_PlainJSON(t *testing.T) {
	analysis, err := ParseAnalysisResponse(sampleAnalysisJSON)
	require.NoError(t, err)
	assert.Equal(t, "market reaction", analysis.Themes[0].Name)
	assert.EqualValues(t, "positive", analysis.Sentiment)
	assert.Equal(t, 0.6, analysis.SentimentScore)
}

func TestParseAnalysisResponse_MarkdownFenced(t *testing.T) {
	fenced := "```json\n" + sampleAnalysisJSON + "\n```"
	analysis, err := ParseAnalysisResponse(fenced)
	require.NoError(t, err)
	assert.Equal(t, "Markets rallied on the news.", analysis.Summary)
}

func TestParseAnalysisResponse_InvalidJSON(t *testing.T) {
	_, err := ParseAnalysisResponse("not json at all")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseAnalysisResponse_FailsValidation(t *testing.T) {
	_, err := ParseAnalysisResponse(`{"themes": [], "sentiment": "neutral", "key_points": ["a","b"]}`)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestBuildAnalysisPrompt_IncludesInputs(t *testing.T) {
	prompt := BuildAnalysisPrompt("Title X", "Body Y", "phrase Z")
	assert.Contains(t, prompt, "Title X")
	assert.Contains(t, prompt, "Body Y")
	assert.Contains(t, prompt, "phrase Z")
}
