package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Result is one classification outcome: a star label ("1 star".."5 stars",
// matching the multilingual star-rating models) and the model's confidence.
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Provider is a multi-class text-classification capability. Classify must
// return exactly one result per input text, in order, and accept batches
// of at least 32.
type Provider interface {
	Name() string
	Classify(ctx context.Context, texts []string) ([]Result, error)
}

// starRating is the JSON shape both providers are prompted to emit.
type starRating struct {
	Stars      int     `json:"stars"`
	Confidence float64 `json:"confidence"`
}

func classifyPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("Rate the sentiment of each phrase below from 1 (very negative) to 5 (very positive) stars. ")
	b.WriteString("The phrases are trending social media topics in any language. ")
	b.WriteString("Respond with a JSON array, one object per phrase in the same order, ")
	b.WriteString(`each shaped {"stars": <1-5>, "confidence": <0-1>}. No other text.`)
	b.WriteString("\n\nPhrases:\n")
	for i, text := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, text)
	}
	return b.String()
}

// parseRatings decodes the provider response and converts it to results.
// A length mismatch is an error so the caller can fall back to the default
// label for the whole batch.
func parseRatings(raw string, want int) ([]Result, error) {
	raw = strings.TrimSpace(raw)
	// Some models wrap JSON in markdown fences despite instructions.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var ratings []starRating
	if err := json.Unmarshal([]byte(raw), &ratings); err != nil {
		return nil, fmt.Errorf("invalid classification response: %w", err)
	}
	if len(ratings) != want {
		return nil, fmt.Errorf("classification returned %d results for %d inputs", len(ratings), want)
	}

	results := make([]Result, len(ratings))
	for i, r := range ratings {
		stars := r.Stars
		if stars < 1 || stars > 5 {
			stars = 3
		}
		label := "star"
		if stars > 1 {
			label = "stars"
		}
		results[i] = Result{
			Label:      fmt.Sprintf("%d %s", stars, label),
			Confidence: r.Confidence,
		}
	}
	return results, nil
}
