package services

import (
	"context"
	"encoding/json"
	"io"
	"regexp"
	"strings"
	"sync/atomic"

	"cowriter/models"

	"github.com/samber/lo"
)

// EncodeSSEChunk frames one delta the way the chat completions stream does.
func EncodeSSEChunk(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"delta": map[string]string{"content": content}},
		},
	})
	return sseDataPrefix + string(b) + "\n\n"
}

// SSEStream frames every delta and terminates the stream with [DONE].
func SSEStream(deltas ...string) string {
	var sb strings.Builder
	for _, d := range deltas {
		sb.WriteString(EncodeSSEChunk(d))
	}
	sb.WriteString(sseDataPrefix + sseDone + "\n\n")
	return sb.String()
}

type mockCycle struct {
	text     string
	question string
}

var mockCycles = []mockCycle{
	{
		text:     "The summer I turned sixteen, the lights in our apartment went dark for the third time that month.",
		question: "What was the biggest challenge you faced during that time, and how did it affect your studies?",
	},
	{
		text:     "Instead of letting the silence win, I carried my textbooks to the all-night laundromat down the street and studied under its flickering fluorescent glow.",
		question: "Who helped you or inspired you to keep going when things were difficult?",
	},
	{
		text:     "Those nights taught me that resilience is not a single brave act but a habit built one small decision at a time.",
		question: "How do you plan to use what you learned to shape your future goals?",
	},
	{
		text:     "Today I want to study electrical engineering so that no family on my block has to choose between paying rent and keeping the lights on.",
		question: "Is there a specific moment or detail you would like to add to make the essay more personal?",
	},
}

const mockAnalysis = `I've analyzed your scholarship prompt, and here's what I found:

**Key Themes & Values:**
This scholarship is looking for students who demonstrate resilience, personal growth, and a clear sense of purpose.

**Narrative Structure That Works Best:**
1. Start with a specific, vivid moment that sets the scene
2. Describe the challenge authentically
3. Focus on what YOU did to overcome it
4. Show concrete evidence of growth or learning
5. Connect it to your future aspirations

**Tone & Voice:**
Write in your authentic voice, conversational but thoughtful. Show the change through specific examples.

Let's craft an essay that truly represents who you are!`

var mockEnhancements = []struct {
	phrase      *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)i was sad`), "A profound melancholy settled over me, reshaping my perspective."},
	{regexp.MustCompile(`(?i)i was happy`), "An overwhelming sense of joy and possibility filled my heart."},
	{regexp.MustCompile(`(?i)i learned a lot`), "This experience became a transformative catalyst for my personal growth."},
	{regexp.MustCompile(`(?i)it was hard`), "The challenge tested my resilience and forced me to discover inner strength I didn't know I possessed."},
	{regexp.MustCompile(`(?i)i tried my best`), "I committed myself fully to the endeavor, pushing beyond my perceived limitations."},
	{regexp.MustCompile(`(?i)i changed`), "I underwent a profound transformation that fundamentally altered my worldview and aspirations."},
	{regexp.MustCompile(`(?i)it was important`), "This moment became a pivotal turning point that shaped my character and future direction."},
}

// MockProvider is an offline Provider with scripted answers. Responses are split into
// ChunkSize-rune deltas so callers see a realistic fragment stream.
type MockProvider struct {
	ChunkSize int

	coWriterCalls    atomic.Int32
	analysisCalls    atomic.Int32
	enhancementCalls atomic.Int32
}

func NewMockProvider() *MockProvider {
	return &MockProvider{ChunkSize: 12}
}

func (m *MockProvider) StreamCoWriter(ctx context.Context, req CoWriterRequest) (io.ReadCloser, error) {
	m.coWriterCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written := lo.CountBy(req.ConversationHistory, func(t models.Turn) bool {
		return t.Role == models.RoleAssistant
	})
	cycle := mockCycles[written%len(mockCycles)]

	payload, err := json.Marshal(models.AssembledResponse{EssayText: cycle.text, Question: cycle.question})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(SSEStream(m.split(string(payload))...))), nil
}

func (m *MockProvider) StreamAnalysis(ctx context.Context, _ string) (io.ReadCloser, error) {
	m.analysisCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(SSEStream(m.split(mockAnalysis)...))), nil
}

// EnhanceSentence rewrites the first known weak phrase, or appends a generic reflection.
func (m *MockProvider) EnhanceSentence(ctx context.Context, sentence, _ string) (string, error) {
	m.enhancementCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, e := range mockEnhancements {
		if e.phrase.MatchString(sentence) {
			return e.phrase.ReplaceAllLiteralString(sentence, e.replacement), nil
		}
	}
	return strings.TrimSpace(sentence) + " This experience profoundly shaped my understanding and growth.", nil
}

func (m *MockProvider) CoWriterCalls() int    { return int(m.coWriterCalls.Load()) }
func (m *MockProvider) AnalysisCalls() int    { return int(m.analysisCalls.Load()) }
func (m *MockProvider) EnhancementCalls() int { return int(m.enhancementCalls.Load()) }

func (m *MockProvider) split(s string) []string {
	size := m.ChunkSize
	if size <= 0 {
		return []string{s}
	}
	runes := []rune(s)
	return lo.Map(lo.Chunk(runes, size), func(c []rune, _ int) string { return string(c) })
}

const mockProfile = `{
  "explicit_requirements": ["GPA 3.5+", "STEM major"],
  "implicit_values": ["innovation", "community impact"],
  "keywords": {"high_intensity": ["STEM", "innovation"], "medium_intensity": ["project"], "low_intensity": [], "negative": ["generic claims"]},
  "tone": "confident",
  "story_style": "project-driven",
  "comparative_insights": [],
  "weights": {"academics": 0.4, "leadership": 0.2, "community_service": 0.2, "financial_need": 0.1, "innovation": 0.1,
              "research": 0, "resilience": 0, "extracurriculars": 0, "dei": 0, "creativity": 0},
  "explanations": {"academics": ["Minimum GPA stated"], "leadership": [], "community_service": [], "financial_need": [],
                   "innovation": [], "research": [], "resilience": [], "extracurriculars": [], "dei": [], "creativity": []},
  "scholarship_personality": "The Innovator"
}`

// Extract returns a fixed profile so the extraction endpoint works offline.
func (m *MockProvider) Extract(ctx context.Context, description string) (*models.ScholarshipProfile, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseScholarshipProfile(mockProfile)
}

var mockWinners = []models.WinnerIdentifier{
	{WinnerName: "Maya Thompson", ContextClue: "University of Michigan, Mechanical Engineering"},
	{WinnerName: "Daniel Okafor", ContextClue: "Georgia Tech, Computer Science"},
	{WinnerName: "Priya Raman", ContextClue: "Austin, Texas"},
}

// FindWinners returns a fixed list so the past-winner endpoint works offline.
func (m *MockProvider) FindWinners(ctx context.Context, scholarship string) ([]models.WinnerIdentifier, error) {
	if strings.TrimSpace(scholarship) == "" {
		return nil, ErrEmptyScholarshipName
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.WinnerIdentifier(nil), mockWinners...), nil
}
