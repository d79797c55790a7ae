package sentiment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiProvider classifies tag batches through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

func NewGeminiProvider(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

func (g *GeminiProvider) Name() string {
	return "Gemini"
}

func (g *GeminiProvider) Classify(ctx context.Context, texts []string) ([]Result, error) {
	if g.client == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}
	if len(texts) == 0 {
		return []Result{}, nil
	}

	temperature := float32(0)
	maxTokens := int32(32 * len(texts))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: classifyPrompt(texts)},
			},
		},
	}, &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  maxTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		g.logger.Error("Gemini classification failed", zap.Error(err))
		return nil, err
	}

	text := extractText(resp)
	if text == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	results, err := parseRatings(text, len(texts))
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Gemini batch classified", zap.Int("texts", len(texts)))
	return results, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}

	return strings.Join(texts, "")
}
