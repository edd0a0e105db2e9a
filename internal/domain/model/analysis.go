package model

// Sentiment is the categorical label an LLM analysis assigns to an item.
type Sentiment string

const (
	SentimentVeryNegative Sentiment = "very_negative"
	SentimentNegative     Sentiment = "negative"
	SentimentNeutral      Sentiment = "neutral"
	SentimentPositive     Sentiment = "positive"
	SentimentVeryPositive Sentiment = "very_positive"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentVeryNegative, SentimentNegative, SentimentNeutral, SentimentPositive, SentimentVeryPositive:
		return true
	default:
		return false
	}
}

// Theme is one topical cluster the LLM identified in an item.
type Theme struct {
	Name       string   `json:"name"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

// Validate enforces the Theme field constraints from the analysis schema.
func (t *Theme) Validate() error {
	if t.Name == "" {
		return &ValidationError{Field: "theme.name", Message: "must not be empty"}
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return &ValidationError{Field: "theme.confidence", Message: "must be within [0,1]"}
	}
	if len(t.Keywords) < 2 || len(t.Keywords) > 5 {
		return &ValidationError{Field: "theme.keywords", Message: "must contain 2-5 keywords"}
	}
	return nil
}

// Analysis is the LLM-derived product attached to a ProcessedItem.
type Analysis struct {
	Themes         []Theme   `json:"themes"`
	Sentiment      Sentiment `json:"sentiment"`
	SentimentScore float64   `json:"sentiment_score"`
	Summary        string    `json:"summary"`
	KeyPoints      []string  `json:"key_points"`
	Entities       []string  `json:"entities"`
}

// Validate enforces the Analysis invariants from spec.md §3: 1-5 themes,
// a known sentiment label, score within [-1,1], 2-5 key points.
func (a *Analysis) Validate() error {
	if len(a.Themes) < 1 || len(a.Themes) > 5 {
		return &ValidationError{Field: "themes", Message: "must contain 1-5 entries"}
	}
	for i := range a.Themes {
		if err := a.Themes[i].Validate(); err != nil {
			return err
		}
	}
	if !a.Sentiment.Valid() {
		return &ValidationError{Field: "sentiment", Message: "unknown sentiment label: " + string(a.Sentiment)}
	}
	if a.SentimentScore < -1 || a.SentimentScore > 1 {
		return &ValidationError{Field: "sentiment_score", Message: "must be within [-1,1]"}
	}
	if len(a.KeyPoints) < 2 || len(a.KeyPoints) > 5 {
		return &ValidationError{Field: "key_points", Message: "must contain 2-5 entries"}
	}
	return nil
}
