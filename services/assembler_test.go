package services

import (
	"testing"

	"cowriter/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingParser records how often it is consulted.
type countingParser struct {
	inner ResponseParser
	calls int
}

func (c *countingParser) Name() models.ResponseKind { return c.inner.Name() }

func (c *countingParser) Parse(text string) (models.AssembledResponse, bool) {
	c.calls++
	return c.inner.Parse(text)
}

func TestAssembler_TaggedSections(t *testing.T) {
	got, err := NewAssembler(nil).Assemble("[ESSAY] A.[QUESTION] B.")

	require.NoError(t, err)
	assert.Equal(t, models.ResponseTagged, got.Kind)
	assert.Equal(t, models.AssembledResponse{EssayText: "A.", Question: "B."}, got.AssembledResponse)
}

func TestAssembler_TaggedQuestionFirst(t *testing.T) {
	got, err := NewAssembler(nil).Assemble("preamble [QUESTION] Why?\n[ESSAY] It began in June.")

	require.NoError(t, err)
	assert.Equal(t, "It began in June.", got.EssayText)
	assert.Equal(t, "Why?", got.Question)
}

func TestAssembler_JSONWithoutTaggedFallback(t *testing.T) {
	tagged := &countingParser{inner: TaggedParser{}}
	a := NewAssembler(nil, JSONParser{}, tagged)

	got, err := a.Assemble(`{"text_to_write":"A","question_to_ask":"B"}`)

	require.NoError(t, err)
	assert.Equal(t, models.ResponseJSON, got.Kind)
	assert.Equal(t, models.AssembledResponse{EssayText: "A", Question: "B"}, got.AssembledResponse)
	assert.Zero(t, tagged.calls)
}

func TestAssembler_JSONInCodeFence(t *testing.T) {
	text := "```json\n{\"text_to_write\": \"Rain fell.\", \"question_to_ask\": \"Who was there?\"}\n```"
	got, err := NewAssembler(nil).Assemble(text)

	require.NoError(t, err)
	assert.Equal(t, models.ResponseJSON, got.Kind)
	assert.Equal(t, "Rain fell.", got.EssayText)
}

func TestAssembler_EmptyQuestionGetsFallback(t *testing.T) {
	got, err := NewAssembler(nil).Assemble(`{"text_to_write":"Only text."}`)

	require.NoError(t, err)
	assert.Equal(t, "Only text.", got.EssayText)
	assert.Equal(t, FallbackQuestion, got.Question)
}

func TestAssembler_UnparseableFallsBack(t *testing.T) {
	for _, text := range []string{
		"",
		"Sure! Here is the next sentence of your essay.",
		`{"unrelated": true}`,
		`{"text_to_write": "cut off`,
	} {
		got, err := NewAssembler(nil).Assemble(text)

		require.ErrorIs(t, err, ErrResponseParse, "input %q", text)
		assert.Equal(t, models.ResponseFallback, got.Kind)
		assert.Equal(t, "", got.EssayText)
		assert.NotEmpty(t, got.Question)
	}
}
