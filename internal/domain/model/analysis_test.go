package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validAnalysis() Analysis {
	return Analysis{
		Themes: []Theme{
			{Name: "climate policy", Confidence: 0.8, Keywords: []string{"emissions", "policy"}},
		},
		Sentiment:      SentimentNegative,
		SentimentScore: -0.4,
		Summary:        "A short summary.",
		KeyPoints:      []string{"point one", "point two"},
		Entities:       []string{"EPA"},
	}
}

func TestAnalysis_Validate(t *testing.T) {
	a := validAnalysis()
	assert.NoError(t, a.Validate())
}

func TestAnalysis_Validate_ThemeCountBounds(t *testing.T) {
	a := validAnalysis()
	a.Themes = nil
	assert.Error(t, a.Validate())

	a = validAnalysis()
	for i := 0; i < 6; i++ {
		a.Themes = append(a.Themes, Theme{Name: "x", Confidence: 0.5, Keywords: []string{"a", "b"}})
	}
	assert.Error(t, a.Validate())
}

func TestAnalysis_Validate_UnknownSentiment(t *testing.T) {
	a := validAnalysis()
	a.Sentiment = "furious"
	assert.Error(t, a.Validate())
}

func TestAnalysis_Validate_ScoreOutOfRange(t *testing.T) {
	a := validAnalysis()
	a.SentimentScore = 1.5
	assert.Error(t, a.Validate())
}

func TestAnalysis_Validate_KeyPointsBounds(t *testing.T) {
	a := validAnalysis()
	a.KeyPoints = []string{"only one"}
	assert.Error(t, a.Validate())
}

func TestTheme_Validate_KeywordBounds(t *testing.T) {
	th := Theme{Name: "x", Confidence: 0.5, Keywords: []string{"one"}}
	assert.Error(t, th.Validate())

	th.Keywords = []string{"one", "two", "three", "four", "five", "six"}
	assert.Error(t, th.Validate())
}

func TestTheme_Validate_ConfidenceBounds(t *testing.T) {
	th := Theme{Name: "x", Confidence: 1.5, Keywords: []string{"a", "b"}}
	assert.Error(t, th.Validate())
}
