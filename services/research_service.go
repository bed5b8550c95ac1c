package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cowriter/config"
	"cowriter/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxPageBytes     = 2 << 20
)

// WebResearcher searches the web and reads result pages as plain text.
type WebResearcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	Fetch(ctx context.Context, url string) (string, error)
}

type tavilyRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []models.SearchResult `json:"results"`
}

// ResearchService searches through the Tavily API and scrapes the pages it returns.
type ResearchService struct {
	search *resty.Client
	fetch  *resty.Client
	cfg    config.SearchConfig
	logger *zap.Logger
}

func NewResearchService(cfg config.SearchConfig, timeout time.Duration, logger *zap.Logger) *ResearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	search := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout).
		SetLogger(logger.Sugar())
	fetch := resty.New().
		SetHeader("User-Agent", scraperUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8").
		SetTimeout(timeout).
		SetLogger(logger.Sugar())

	return &ResearchService{search: search, fetch: fetch, cfg: cfg, logger: logger}
}

func (s *ResearchService) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrSearchUnavailable
	}

	var out tavilyResponse
	resp, err := s.search.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.APIKey).
		SetBody(tavilyRequest{Query: query, MaxResults: s.cfg.MaxResults}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() {
		s.logger.Error("search API error", zap.Int("status", resp.StatusCode()), zap.String("body", resp.String()))
		return nil, fmt.Errorf("%w: status %d", ErrSearchFailed, resp.StatusCode())
	}

	s.logger.Debug("search completed", zap.String("query", query), zap.Int("results", len(out.Results)))
	return out.Results, nil
}

// Fetch downloads url and returns its visible text, cut to the configured page limit.
func (s *ResearchService) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := s.fetch.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode())
	}
	body, err := io.ReadAll(io.LimitReader(raw, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}

	var text string
	if strings.Contains(resp.Header().Get("Content-Type"), "text/plain") {
		text = strings.Join(strings.Fields(string(body)), " ")
	} else if text, err = PageText(body); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", url, err)
	}
	return truncateRunes(text, s.cfg.PageLimit), nil
}

// PageText returns the visible text of an HTML document with whitespace collapsed. Scripts,
// styles and page chrome are left out.
func PageText(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}

	var words []string
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		if depth > 256 {
			return
		}
		switch n.Type {
		case html.TextNode:
			words = append(words, strings.Fields(n.Data)...)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg", "template", "nav", "footer", "header":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, depth+1)
		}
	}
	walk(doc, 0)

	return strings.Join(words, " "), nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
