package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

type ExportFormat string

const (
	ExportText     ExportFormat = "text"
	ExportMarkdown ExportFormat = "markdown"
	ExportHTML     ExportFormat = "html"
)

func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case "", ExportText:
		return ExportText, nil
	case ExportMarkdown, "md":
		return ExportMarkdown, nil
	case ExportHTML:
		return ExportHTML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// RenderService turns a session into a downloadable document.
type RenderService struct {
	md goldmark.Markdown
}

func NewRenderService() *RenderService {
	return &RenderService{
		// essays keep single line breaks as written
		md: goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps())),
	}
}

// Render returns the document body and its content type.
func (r *RenderService) Render(snap SessionSnapshot, format ExportFormat) (string, string, error) {
	switch format {
	case ExportText:
		return snap.Essay, "text/plain; charset=utf-8", nil
	case ExportMarkdown:
		return markdownDocument(snap), "text/markdown; charset=utf-8", nil
	case ExportHTML:
		page, err := r.RenderMarkdown(markdownDocument(snap))
		if err != nil {
			return "", "", fmt.Errorf("failed to render essay: %w", err)
		}
		return page, "text/html; charset=utf-8", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// RenderAnalysis exports the strategy analysis on its own. The analysis is already markdown,
// so the markdown and text formats return it as is.
func (r *RenderService) RenderAnalysis(snap SessionSnapshot, format ExportFormat) (string, string, error) {
	analysis := strings.TrimSpace(snap.Analysis)
	if analysis == "" || analysis == analysisFallback {
		return "", "", ErrAnalysisUnavailable
	}
	switch format {
	case ExportText:
		return analysis, "text/plain; charset=utf-8", nil
	case ExportMarkdown:
		return analysis + "\n", "text/markdown; charset=utf-8", nil
	case ExportHTML:
		page, err := r.RenderMarkdown(analysis)
		if err != nil {
			return "", "", fmt.Errorf("failed to render analysis: %w", err)
		}
		return page, "text/html; charset=utf-8", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// RenderMarkdown renders markdown to HTML.
func (r *RenderService) RenderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func markdownDocument(snap SessionSnapshot) string {
	var sb strings.Builder
	sb.WriteString("# Scholarship Essay\n\n")
	sb.WriteString(strings.TrimSpace(snap.Essay))
	sb.WriteString("\n")
	if analysis := strings.TrimSpace(snap.Analysis); analysis != "" && analysis != analysisFallback {
		sb.WriteString("\n---\n\n## Essay Strategy\n\n")
		sb.WriteString(analysis)
		sb.WriteString("\n")
	}
	return sb.String()
}
