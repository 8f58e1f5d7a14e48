package upstream

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
)

// OpenAIClient talks to any OpenAI-compatible completion endpoint,
// which covers most self-hosted gateways
type OpenAIClient struct {
	client *openai.Client
	model  string

	systemPrompt string
	temperature  float32
	maxTokens    int
}

func NewOpenAI() *OpenAIClient {
	cfg := openai.DefaultConfig(viper.GetString("generation.api_key"))
	cfg.BaseURL = viper.GetString("generation.base_url")

	return &OpenAIClient{
		client:       openai.NewClientWithConfig(cfg),
		model:        viper.GetString("generation.model"),
		systemPrompt: viper.GetString("generation.system_prompt"),
		temperature:  float32(viper.GetFloat64("generation.temperature")),
		maxTokens:    viper.GetInt("generation.max_tokens"),
	}
}

func (o *OpenAIClient) Reply(ctx context.Context, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{}

	if o.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("generation request failed, %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("generation response has no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
