package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cowriter/config"

	openai "github.com/sashabaranov/go-openai"
)

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

func newOpenAIClient(cfg config.ProviderConfig) *openai.Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	return openai.NewClientWithConfig(clientCfg)
}

// completeJSON runs one chat completion in JSON mode and returns the reply text.
func completeJSON(ctx context.Context, client *openai.Client, model string, cc config.CompletionConfig, system, user string) (string, openai.Usage, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   cc.MaxTokens,
		Temperature: cc.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", openai.Usage{}, providerError(err)
	}
	if len(resp.Choices) == 0 {
		return "", resp.Usage, fmt.Errorf("%w: no choices returned", ErrResponseParse)
	}
	return resp.Choices[0].Message.Content, resp.Usage, nil
}

// decodeJSONObject decodes the outermost JSON object found in text into out.
func decodeJSONObject(text string, out any) error {
	block := jsonObjectPattern.FindString(text)
	if block == "" {
		return fmt.Errorf("%w: no JSON object in model output", ErrResponseParse)
	}
	if err := json.Unmarshal([]byte(block), out); err != nil {
		return fmt.Errorf("%w: %w", ErrResponseParse, err)
	}
	return nil
}

func providerError(err error) error {
	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
	)
	switch {
	case errors.As(err, &apiErr):
		return &ProviderHTTPError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	case errors.As(err, &reqErr):
		return &ProviderHTTPError{StatusCode: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	default:
		return fmt.Errorf("chat completion request failed: %w", err)
	}
}
