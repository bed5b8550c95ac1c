package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportFormat(t *testing.T) {
	tests := map[string]ExportFormat{
		"":         ExportText,
		"TEXT":     ExportText,
		"md":       ExportMarkdown,
		"markdown": ExportMarkdown,
		" html ":   ExportHTML,
	}
	for raw, want := range tests {
		got, err := ParseExportFormat(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := ParseExportFormat("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRenderService_Render(t *testing.T) {
	r := NewRenderService()
	snap := SessionSnapshot{
		Essay:    "The lights went out.\nI kept studying.",
		Analysis: "**Key Themes & Values:**\nResilience.",
	}

	text, ct, err := r.Render(snap, ExportText)
	require.NoError(t, err)
	assert.Equal(t, snap.Essay, text)
	assert.Equal(t, "text/plain; charset=utf-8", ct)

	md, _, err := r.Render(snap, ExportMarkdown)
	require.NoError(t, err)
	assert.Contains(t, md, "# Scholarship Essay")
	assert.Contains(t, md, "## Essay Strategy")

	page, ct, err := r.Render(snap, ExportHTML)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", ct)
	assert.Contains(t, page, "<h1>Scholarship Essay</h1>")
	assert.Contains(t, page, "The lights went out.<br>")
	assert.Contains(t, page, "<strong>Key Themes &amp; Values:</strong>")
}

func TestRenderService_SkipsFallbackAnalysis(t *testing.T) {
	md, _, err := NewRenderService().Render(SessionSnapshot{Essay: "Text.", Analysis: analysisFallback}, ExportMarkdown)

	require.NoError(t, err)
	assert.NotContains(t, md, "Essay Strategy")
}

func TestRenderService_RenderAnalysis(t *testing.T) {
	r := NewRenderService()
	snap := SessionSnapshot{Analysis: "**Key Themes & Values:**\n- Resilience\n- Service"}

	page, ct, err := r.RenderAnalysis(snap, ExportHTML)
	require.NoError(t, err)
	assert.Equal(t, "text/html; charset=utf-8", ct)
	assert.Contains(t, page, "<strong>Key Themes &amp; Values:</strong>")
	assert.Contains(t, page, "<li>Resilience</li>")

	md, ct, err := r.RenderAnalysis(snap, ExportMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "text/markdown; charset=utf-8", ct)
	assert.Equal(t, snap.Analysis+"\n", md)

	for _, analysis := range []string{"", "  ", analysisFallback} {
		_, _, err := r.RenderAnalysis(SessionSnapshot{Analysis: analysis}, ExportHTML)
		assert.ErrorIs(t, err, ErrAnalysisUnavailable)
	}
	_, _, err = r.RenderAnalysis(snap, ExportFormat("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRenderService_RenderMarkdown(t *testing.T) {
	page, err := NewRenderService().RenderMarkdown("line one\nline two")

	require.NoError(t, err)
	assert.Equal(t, "<p>line one<br>\nline two</p>\n", page)
}
