package llm

import (
	"encoding/json"
	"fmt"

	"sentinel-pipeline/internal/domain/model"
	"sentinel-pipeline/internal/llm/normalize"
)

// BuildAnalysisPrompt constructs the shared content-analysis prompt every
// backend sends verbatim; only the transport and response parsing differ
// between providers.
func BuildAnalysisPrompt(title, content, searchPhrase string) string {
	return fmt.Sprintf(`Analyze the following content that was collected while searching for %q.

Title: %s

Content:
%s

Provide a structured analysis with:

1. THEMES: Identify 1-5 main themes. For each theme provide:
   - name: A short descriptive name (2-4 words)
   - confidence: How confident you are this theme is present (0.0-1.0)
   - keywords: 2-5 keywords associated with this theme

2. SENTIMENT: Classify the overall sentiment as one of:
   - very_negative, negative, neutral, positive, very_positive
   Also provide a sentiment_score from -1.0 (most negative) to 1.0 (most positive)

3. SUMMARY: A 1-2 sentence summary of the content

4. KEY_POINTS: 2-5 bullet points capturing the main takeaways

5. ENTITIES: List any people, organizations, or locations mentioned

Respond in JSON format:
{
  "themes": [
    {"name": "...", "confidence": 0.0, "keywords": ["...", "..."]}
  ],
  "sentiment": "neutral",
  "sentiment_score": 0.0,
  "summary": "...",
  "key_points": ["...", "..."],
  "entities": ["...", "..."]
}`, searchPhrase, title, content)
}

// wireAnalysis mirrors the JSON shape every provider is prompted to return.
type wireAnalysis struct {
	Themes []struct {
		Name       string   `json:"name"`
		Confidence float64  `json:"confidence"`
		Keywords   []string `json:"keywords"`
	} `json:"themes"`
	Sentiment      string   `json:"sentiment"`
	SentimentScore float64  `json:"sentiment_score"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	Entities       []string `json:"entities"`
}

// ParseAnalysisResponse strips an optional markdown fence, decodes the
// provider's JSON completion, and validates the result against the
// analysis invariants.
func ParseAnalysisResponse(raw string) (model.Analysis, error) {
	cleaned := normalize.StripMarkdownFences(raw)

	var wire wireAnalysis
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return model.Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	themes := make([]model.Theme, 0, len(wire.Themes))
	for _, t := range wire.Themes {
		themes = append(themes, model.Theme{
			Name:       t.Name,
			Confidence: t.Confidence,
			Keywords:   t.Keywords,
		})
	}

	analysis := model.Analysis{
		Themes:         themes,
		Sentiment:      model.Sentiment(wire.Sentiment),
		SentimentScore: wire.SentimentScore,
		Summary:        wire.Summary,
		KeyPoints:      wire.KeyPoints,
		Entities:       wire.Entities,
	}

	if err := analysis.Validate(); err != nil {
		return model.Analysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return analysis, nil
}
