package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnimator_RevealWordsStates(t *testing.T) {
	a := NewAnimator(0, 0)

	var states []string
	final, err := a.RevealWords(context.Background(), "", "a b c", func(s RevealStep) {
		states = append(states, s.State)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a b", "a b c"}, states)
	assert.Equal(t, "a b c", final)
}

func TestAnimator_RevealWordsAppendsToExistingText(t *testing.T) {
	a := NewAnimator(0, 0)

	var pieces []string
	final, err := a.RevealWords(context.Background(), "It rained.", "We  stayed\tinside.", func(s RevealStep) {
		pieces = append(pieces, s.Piece)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{" We", " stayed", " inside."}, pieces)
	assert.Equal(t, "It rained. We stayed inside.", final)
	assert.Equal(t, final, JoinReveal("It rained.", "We  stayed\tinside."))
}

func TestAnimator_NoSeparatorAfterNewline(t *testing.T) {
	a := NewAnimator(0, 0)

	final, err := a.RevealWords(context.Background(), "Intro.\n", "Next para.\n\nThird", nil)

	require.NoError(t, err)
	assert.Equal(t, "Intro.\nNext para.\n\nThird", final)
}

func TestAnimator_StatesAreGrowingPrefixes(t *testing.T) {
	a := NewAnimator(0, 0)
	target := "When the lights went out I kept studying by candlelight."

	prev := "Start."
	final, err := a.RevealWords(context.Background(), prev, target, func(s RevealStep) {
		assert.True(t, strings.HasPrefix(s.State, prev), "%q does not extend %q", s.State, prev)
		assert.Greater(t, len(s.State), len(prev))
		assert.Equal(t, prev+s.Piece, s.State)
		prev = s.State
	})

	require.NoError(t, err)
	assert.Equal(t, prev, final)
	assert.Equal(t, JoinReveal("Start.", target), final)
}

func TestAnimator_EmptyTarget(t *testing.T) {
	a := NewAnimator(0, 0)
	calls := 0

	final, err := a.RevealWords(context.Background(), "kept", "   ", func(RevealStep) { calls++ })

	require.NoError(t, err)
	assert.Equal(t, "kept", final)
	assert.Zero(t, calls)
}

func TestAnimator_CancelKeepsPartialState(t *testing.T) {
	a := NewAnimator(time.Millisecond, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var states []string
	final, err := a.RevealWords(ctx, "", "one two three four", func(s RevealStep) {
		states = append(states, s.State)
		if len(states) == 2 {
			cancel()
		}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "one two", final)
	assert.Equal(t, []string{"one", "one two"}, states)
}

func TestAnimator_RevealChars(t *testing.T) {
	a := NewAnimator(0, 0)

	var states []string
	final, err := a.RevealChars(context.Background(), "", "héy", func(s RevealStep) {
		states = append(states, s.State)
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"h", "hé", "héy"}, states)
	assert.Equal(t, "héy", final)
}
