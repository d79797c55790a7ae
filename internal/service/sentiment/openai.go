package sentiment

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// OpenAIProvider classifies tag batches through the chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIProvider(apiKey, model string, logger *zap.Logger) *OpenAIProvider {
	if apiKey == "" {
		return nil
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
		model:  model,
		logger: logger,
	}
}

func (o *OpenAIProvider) Name() string {
	return "OpenAI"
}

func (o *OpenAIProvider) Classify(ctx context.Context, texts []string) ([]Result, error) {
	if o.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}
	if len(texts) == 0 {
		return []Result{}, nil
	}

	var model openai.ChatModel
	switch o.model {
	case "gpt-4.1":
		model = openai.ChatModelGPT4_1
	case "gpt-4.1-mini":
		model = openai.ChatModelGPT4_1Mini
	case "gpt-4.1-nano":
		model = openai.ChatModelGPT4_1Nano
	case "gpt-4o":
		model = openai.ChatModelGPT4o
	case "gpt-4o-mini":
		model = openai.ChatModelGPT4oMini
	case "gpt-5-mini":
		model = openai.ChatModelGPT5Mini
	case "gpt-5-nano":
		model = openai.ChatModelGPT5Nano
	default:
		model = openai.ChatModelGPT4_1Mini
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("You must respond with valid JSON only. Do not include any text outside the JSON array."),
		openai.UserMessage(classifyPrompt(texts)),
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(32 * len(texts))),
	})
	if err != nil {
		o.logger.Error("OpenAI classification failed", zap.Error(err))
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenAI response")
	}

	results, err := parseRatings(resp.Choices[0].Message.Content, len(texts))
	if err != nil {
		return nil, err
	}

	o.logger.Debug("OpenAI batch classified",
		zap.Int("texts", len(texts)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens))

	return results, nil
}
