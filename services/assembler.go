package services

import (
	"encoding/json"
	"strings"

	"cowriter/models"

	"go.uber.org/zap"
)

// FallbackQuestion is asked when a cycle produced nothing usable.
const FallbackQuestion = "Could you tell me a bit more about that experience and why it matters to you?"

const (
	essayMarker    = "[ESSAY]"
	questionMarker = "[QUESTION]"
)

// ResponseParser is one strategy for turning the concatenated stream into an AssembledResponse.
type ResponseParser interface {
	Name() models.ResponseKind
	Parse(text string) (models.AssembledResponse, bool)
}

// JSONParser accepts a single JSON object carrying text_to_write and/or question_to_ask.
type JSONParser struct{}

func (JSONParser) Name() models.ResponseKind { return models.ResponseJSON }

func (JSONParser) Parse(text string) (models.AssembledResponse, bool) {
	var raw struct {
		TextToWrite   *string `json:"text_to_write"`
		QuestionToAsk *string `json:"question_to_ask"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &raw); err != nil {
		return models.AssembledResponse{}, false
	}
	if raw.TextToWrite == nil && raw.QuestionToAsk == nil {
		return models.AssembledResponse{}, false
	}

	var out models.AssembledResponse
	if raw.TextToWrite != nil {
		out.EssayText = strings.TrimSpace(*raw.TextToWrite)
	}
	if raw.QuestionToAsk != nil {
		out.Question = strings.TrimSpace(*raw.QuestionToAsk)
	}
	return out, true
}

// TaggedParser reads "[ESSAY] ... [QUESTION] ..." sections. Each section runs from its marker
// to the next marker or the end of the text.
type TaggedParser struct{}

func (TaggedParser) Name() models.ResponseKind { return models.ResponseTagged }

func (TaggedParser) Parse(text string) (models.AssembledResponse, bool) {
	essay, hasEssay := section(text, essayMarker)
	question, hasQuestion := section(text, questionMarker)
	if !hasEssay && !hasQuestion {
		return models.AssembledResponse{}, false
	}
	return models.AssembledResponse{EssayText: essay, Question: question}, true
}

func section(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	body := text[start+len(marker):]

	end := len(body)
	for _, other := range []string{essayMarker, questionMarker} {
		if i := strings.Index(body, other); i >= 0 && i < end {
			end = i
		}
	}
	return strings.TrimSpace(body[:end]), true
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// drop the info string ("json")
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}

// Assembler resolves a full provider response with an ordered list of parsers.
type Assembler struct {
	parsers []ResponseParser
	logger  *zap.Logger
}

// NewAssembler uses JSON first and tagged sections second unless parsers are given.
func NewAssembler(logger *zap.Logger, parsers ...ResponseParser) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(parsers) == 0 {
		parsers = []ResponseParser{JSONParser{}, TaggedParser{}}
	}
	return &Assembler{parsers: parsers, logger: logger}
}

// Assemble returns the first successful parse. When every strategy fails it returns the
// fallback response together with ErrResponseParse; the fallback is always usable.
func (a *Assembler) Assemble(text string) (models.ParsedResponse, error) {
	for _, p := range a.parsers {
		resp, ok := p.Parse(text)
		if !ok {
			continue
		}
		if resp.Question == "" {
			resp.Question = FallbackQuestion
		}
		return models.ParsedResponse{AssembledResponse: resp, Kind: p.Name()}, nil
	}

	a.logger.Warn("no parser accepted provider response", zap.Int("length", len(text)))
	return models.ParsedResponse{
		AssembledResponse: models.AssembledResponse{Question: FallbackQuestion},
		Kind:              models.ResponseFallback,
	}, ErrResponseParse
}
