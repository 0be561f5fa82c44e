package ai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
)

const deepseekSystemPrompt = "You are a helpful assistant that analyzes Korean news articles and returns structured JSON responses."

// DeepSeekProvider scores entries through the DeepSeek chat-completions API,
// which speaks the OpenAI wire protocol. JSON output is forced via
// response_format.
type DeepSeekProvider struct {
	client openai.Client
	model  string
}

func NewDeepSeekProvider(apiKey, baseURL, model string) *DeepSeekProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &DeepSeekProvider{client: openai.NewClient(opts...), model: model}
}

func (p *DeepSeekProvider) Name() string { return "deepseek" }

func (p *DeepSeekProvider) Generate(ctx context.Context, promptText string) (string, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(deepseekSystemPrompt),
			openai.UserMessage(promptText),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from deepseek")
	}

	return resp.Choices[0].Message.Content, nil
}
