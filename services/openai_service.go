package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cowriter/config"
	"cowriter/models"

	"github.com/go-resty/resty/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// CoWriterRequest is the payload of one co-writer cycle.
type CoWriterRequest struct {
	ScholarshipDescription string        `json:"scholarship_description"`
	ConversationHistory    []models.Turn `json:"conversation_history"`
	EssayText              string        `json:"essay_text"`
}

// Provider is the chat-completion backend the co-writer talks to.
type Provider interface {
	// StreamCoWriter returns the raw SSE body of a co-writer completion. The caller closes it.
	StreamCoWriter(ctx context.Context, req CoWriterRequest) (io.ReadCloser, error)
	// StreamAnalysis returns the raw SSE body of a free-form strategy analysis.
	StreamAnalysis(ctx context.Context, description string) (io.ReadCloser, error)
	EnhanceSentence(ctx context.Context, sentence, essayContext string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// OpenAIService calls the chat completions endpoint over resty.
type OpenAIService struct {
	client *resty.Client
	cfg    config.ProviderConfig
	logger *zap.Logger
}

func NewOpenAIService(cfg config.ProviderConfig, timeout time.Duration, logger *zap.Logger) *OpenAIService {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetLogger(logger.Sugar())

	return &OpenAIService{client: client, cfg: cfg, logger: logger}
}

func (s *OpenAIService) StreamCoWriter(ctx context.Context, req CoWriterRequest) (io.ReadCloser, error) {
	messages := []chatMessage{{Role: "system", Content: coWriterSystemPrompt(req.ScholarshipDescription, req.EssayText)}}
	messages = append(messages, lo.Map(req.ConversationHistory, func(t models.Turn, _ int) chatMessage {
		return chatMessage{Role: string(t.Role), Content: t.Content}
	})...)

	s.logger.Info("co-writer request",
		zap.Int("description_length", len(req.ScholarshipDescription)),
		zap.Int("conversation_length", len(req.ConversationHistory)),
		zap.Int("essay_length", len(req.EssayText)),
	)

	return s.stream(ctx, "co-writer", s.newRequest(s.cfg.CoWriter, messages))
}

func (s *OpenAIService) StreamAnalysis(ctx context.Context, description string) (io.ReadCloser, error) {
	s.logger.Info("analysis request", zap.Int("description_length", len(description)))

	return s.stream(ctx, "analysis", s.newRequest(s.cfg.Analysis, []chatMessage{
		{Role: "system", Content: analysisSystemPrompt},
		{Role: "user", Content: analysisUserPrompt(description)},
	}))
}

// EnhanceSentence returns an improved sentence. When the provider answers without content the
// original sentence is returned unchanged.
func (s *OpenAIService) EnhanceSentence(ctx context.Context, sentence, essayContext string) (string, error) {
	if s.cfg.APIKey == "" {
		return "", ErrProviderUnavailable
	}
	s.logger.Info("enhancement request",
		zap.Int("sentence_length", len(sentence)),
		zap.Int("context_length", len(essayContext)),
	)

	body := s.newRequest(s.cfg.Enhancement, []chatMessage{
		{Role: "system", Content: enhancementSystemPrompt},
		{Role: "user", Content: enhancementUserPrompt(sentence, essayContext)},
	})

	var out chatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.APIKey).
		SetBody(body).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("enhancement request failed: %w", err)
	}
	if resp.IsError() {
		s.logger.Error("OpenAI API error", zap.Int("status", resp.StatusCode()), zap.String("body", resp.String()))
		return "", &ProviderHTTPError{StatusCode: resp.StatusCode(), Body: resp.String()}
	}

	if len(out.Choices) == 0 {
		return sentence, nil
	}
	enhanced := strings.TrimSpace(out.Choices[0].Message.Content)
	if enhanced == "" {
		return sentence, nil
	}
	return enhanced, nil
}

func (s *OpenAIService) newRequest(c config.CompletionConfig, messages []chatMessage) chatRequest {
	return chatRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	}
}

func (s *OpenAIService) stream(ctx context.Context, op string, body chatRequest) (io.ReadCloser, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrProviderUnavailable
	}
	body.Stream = true

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.APIKey).
		SetHeader("Accept", "text/event-stream").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}

	raw := resp.RawBody()
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		defer raw.Close()
		msg, _ := io.ReadAll(io.LimitReader(raw, 4096))
		s.logger.Error("OpenAI API error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("body", msg),
		)
		return nil, &ProviderHTTPError{StatusCode: resp.StatusCode(), Body: string(msg)}
	}
	return raw, nil
}
