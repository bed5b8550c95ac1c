package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cowriter/config"
	"cowriter/models"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// URLs containing one of these are treated as announcement pages without asking the model.
var winnerURLKeywords = []string{"winner", "scholar", "directory", "bio", "cohort", "class-of", "announcement"}

// PastWinnerService finds past winners of a scholarship on the web. Each page goes through
// an announcement check, a candidate extraction pass and a verification pass; only
// verified names are kept.
type PastWinnerService struct {
	research WebResearcher
	client   *openai.Client
	cfg      config.ProviderConfig
	logger   *zap.Logger
}

func NewPastWinnerService(cfg config.ProviderConfig, research WebResearcher, logger *zap.Logger) *PastWinnerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PastWinnerService{
		research: research,
		client:   newOpenAIClient(cfg),
		cfg:      cfg,
		logger:   logger,
	}
}

// FindWinners returns the verified winners of the named scholarship, de-duplicated by name in
// the order they were found. Pages that cannot be fetched or checked are skipped.
func (s *PastWinnerService) FindWinners(ctx context.Context, scholarship string) ([]models.WinnerIdentifier, error) {
	scholarship = strings.TrimSpace(scholarship)
	if scholarship == "" {
		return nil, ErrEmptyScholarshipName
	}
	if s.cfg.APIKey == "" {
		return nil, ErrProviderUnavailable
	}

	queries, err := s.searchQueries(ctx, scholarship)
	if err != nil {
		return nil, err
	}
	s.logger.Info("past winner search started", zap.String("scholarship", scholarship), zap.Int("queries", len(queries)))

	winners := []models.WinnerIdentifier{}
	seen := map[string]bool{}
	processed := map[string]bool{}
	for _, query := range queries {
		results, err := s.research.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, ErrSearchUnavailable) {
				return nil, contextCause(ctx, err)
			}
			s.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, result := range results {
			if result.URL == "" || processed[result.URL] {
				continue
			}
			processed[result.URL] = true

			confirmed, err := s.pageWinners(ctx, scholarship, result.URL)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Warn("page skipped", zap.String("url", result.URL), zap.Error(err))
				continue
			}
			for _, w := range confirmed {
				if seen[w.WinnerName] {
					continue
				}
				seen[w.WinnerName] = true
				winners = append(winners, w)
			}
		}
	}

	s.logger.Info("past winner search complete",
		zap.String("scholarship", scholarship),
		zap.Int("pages", len(processed)),
		zap.Int("winners", len(winners)),
	)
	return winners, nil
}

func (s *PastWinnerService) searchQueries(ctx context.Context, scholarship string) ([]string, error) {
	var out struct {
		Queries []string `json:"queries"`
	}
	if err := s.completeInto(ctx, winnerQueriesPrompt, "Scholarship: "+scholarship, &out); err != nil {
		return nil, err
	}
	queries := lo.Uniq(lo.Filter(lo.Map(out.Queries, func(q string, _ int) string {
		return strings.TrimSpace(q)
	}), func(q string, _ int) bool { return q != "" }))
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no search queries", ErrResponseParse)
	}
	return queries, nil
}

// pageWinners runs the page checks on one search result.
func (s *PastWinnerService) pageWinners(ctx context.Context, scholarship, url string) ([]models.WinnerIdentifier, error) {
	content, err := s.research.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	ok, err := s.isAnnouncementPage(ctx, url, content)
	if err != nil || !ok {
		return nil, err
	}

	candidates, err := s.extractCandidates(ctx, scholarship, content)
	if err != nil || len(candidates) == 0 {
		return nil, err
	}
	byName := lo.KeyBy(candidates, func(w models.WinnerIdentifier) string { return w.WinnerName })
	names := lo.Uniq(lo.Map(candidates, func(w models.WinnerIdentifier, _ int) string { return w.WinnerName }))

	confirmed, err := s.verifyCandidates(ctx, names, content)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("page checked",
		zap.String("url", url),
		zap.Int("candidates", len(names)),
		zap.Int("confirmed", len(confirmed)),
	)
	// names the model confirms without having been offered are dropped
	return lo.FilterMap(confirmed, func(name string, _ int) (models.WinnerIdentifier, bool) {
		w, ok := byName[name]
		return w, ok
	}), nil
}

func (s *PastWinnerService) isAnnouncementPage(ctx context.Context, url, content string) (bool, error) {
	lower := strings.ToLower(url)
	if lo.SomeBy(winnerURLKeywords, func(k string) bool { return strings.Contains(lower, k) }) {
		return true, nil
	}

	var out struct {
		IsWinnerAnnouncement bool `json:"is_winner_announcement"`
	}
	if err := s.completeInto(ctx, winnerPagePrompt, winnerPageUserPrompt(url, content), &out); err != nil {
		return false, err
	}
	return out.IsWinnerAnnouncement, nil
}

func (s *PastWinnerService) extractCandidates(ctx context.Context, scholarship, content string) ([]models.WinnerIdentifier, error) {
	var out struct {
		Winners []models.WinnerIdentifier `json:"winners"`
	}
	if err := s.completeInto(ctx, winnerExtractPrompt, winnerExtractUserPrompt(scholarship, content), &out); err != nil {
		return nil, err
	}
	return lo.Filter(out.Winners, func(w models.WinnerIdentifier, _ int) bool {
		return strings.TrimSpace(w.WinnerName) != ""
	}), nil
}

func (s *PastWinnerService) verifyCandidates(ctx context.Context, candidates []string, content string) ([]string, error) {
	var out struct {
		ConfirmedWinners []string `json:"confirmed_winners"`
	}
	if err := s.completeInto(ctx, winnerVerifyPrompt, winnerVerifyUserPrompt(candidates, content), &out); err != nil {
		return nil, err
	}
	return out.ConfirmedWinners, nil
}

func (s *PastWinnerService) completeInto(ctx context.Context, system, user string, out any) error {
	content, _, err := completeJSON(ctx, s.client, s.cfg.Model, s.cfg.Winners, system, user)
	if err != nil {
		return err
	}
	return decodeJSONObject(content, out)
}
