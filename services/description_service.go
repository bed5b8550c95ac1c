package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"cowriter/config"
	"cowriter/models"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var profileFields = []string{
	"explicit_requirements",
	"implicit_values",
	"keywords",
	"tone",
	"story_style",
	"comparative_insights",
	"weights",
	"explanations",
	"scholarship_personality",
}

var factorFields = []string{
	"academics", "leadership", "community_service", "financial_need", "innovation",
	"research", "resilience", "extracurriculars", "dei", "creativity",
}

var keywordFields = []string{"high_intensity", "medium_intensity", "low_intensity", "negative"}

// nestedFields lists the keys each nested profile object must carry.
var nestedFields = map[string][]string{
	"keywords":     keywordFields,
	"weights":      factorFields,
	"explanations": factorFields,
}

// DescriptionService extracts a ScholarshipProfile from a free-text scholarship description.
type DescriptionService struct {
	client *openai.Client
	cfg    config.ProviderConfig
	logger *zap.Logger
}

func NewDescriptionService(cfg config.ProviderConfig, logger *zap.Logger) *DescriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DescriptionService{
		client: newOpenAIClient(cfg),
		cfg:    cfg,
		logger: logger,
	}
}

func (s *DescriptionService) Extract(ctx context.Context, description string) (*models.ScholarshipProfile, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	if s.cfg.APIKey == "" {
		return nil, ErrProviderUnavailable
	}

	content, usage, err := completeJSON(ctx, s.client, s.cfg.Model, s.cfg.Extraction,
		descriptionExtractorPrompt, "SCHOLARSHIP DESCRIPTION:\n"+description)
	if err != nil {
		return nil, err
	}

	profile, err := ParseScholarshipProfile(content)
	if err != nil {
		s.logger.Warn("extractor output rejected", zap.Error(err))
		return nil, err
	}
	s.logger.Info("scholarship description extracted",
		zap.String("personality", profile.ScholarshipPersonality),
		zap.Int("total_tokens", usage.TotalTokens),
	)
	return profile, nil
}

// ParseScholarshipProfile isolates the outermost JSON object in text, checks that every
// profile field (and every key of the keywords, weights and explanations objects) is present
// and normalises the weights so they sum to 1.
func ParseScholarshipProfile(text string) (*models.ScholarshipProfile, error) {
	block := jsonObjectPattern.FindString(text)
	if block == "" {
		return nil, fmt.Errorf("%w: no JSON object in extractor output", ErrResponseParse)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResponseParse, err)
	}
	missing := missingFields(fields, profileFields, "")
	for _, parent := range []string{"keywords", "weights", "explanations"} {
		raw, ok := fields[parent]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(raw, &nested); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrResponseParse, parent, err)
		}
		missing = append(missing, missingFields(nested, nestedFields[parent], parent+".")...)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing fields %s", ErrResponseParse, strings.Join(missing, ", "))
	}

	var profile models.ScholarshipProfile
	if err := json.Unmarshal([]byte(block), &profile); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResponseParse, err)
	}
	normalizeWeights(&profile.Weights)
	return &profile, nil
}

func missingFields(fields map[string]json.RawMessage, keys []string, prefix string) []string {
	absent := lo.Filter(keys, func(key string, _ int) bool {
		_, ok := fields[key]
		return !ok
	})
	return lo.Map(absent, func(key string, _ int) string { return prefix + key })
}

// normalizeWeights clamps negative weights to zero and rescales the rest to sum to 1. When
// nothing is left every factor gets the same share.
func normalizeWeights(w *models.FactorWeights) {
	values := w.Values()
	for _, v := range values {
		if *v < 0 || math.IsNaN(*v) {
			*v = 0
		}
	}

	total := lo.SumBy(values, func(v *float64) float64 { return *v })
	for _, v := range values {
		if total == 0 {
			*v = 1 / float64(len(values))
			continue
		}
		*v /= total
	}
}
