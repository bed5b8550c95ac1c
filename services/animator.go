package services

import (
	"context"
	"strings"
	"time"

	"github.com/samber/lo"
)

// RevealStep is one intermediate display state. Piece is what this step appended.
type RevealStep struct {
	Piece string
	State string
}

// Animator reveals text incrementally to simulate live typing.
type Animator struct {
	WordDelay time.Duration
	CharDelay time.Duration
}

func NewAnimator(wordDelay, charDelay time.Duration) *Animator {
	return &Animator{WordDelay: wordDelay, CharDelay: charDelay}
}

// revealWords splits on spaces and tabs only, so paragraph breaks stay attached to their words.
func revealWords(target string) []string {
	return strings.FieldsFunc(target, func(r rune) bool { return r == ' ' || r == '\t' })
}

func wordSeparator(buf string) string {
	if buf == "" || strings.HasSuffix(buf, "\n") {
		return ""
	}
	return " "
}

// JoinReveal is the state RevealWords converges to.
func JoinReveal(current, target string) string {
	return lo.Reduce(revealWords(target), func(buf string, word string, _ int) string {
		return buf + wordSeparator(buf) + word
	}, current)
}

// RevealWords appends target to current one word at a time, calling emit after each word.
// States only ever grow. If ctx is cancelled the partial state is returned with ctx.Err().
func (a *Animator) RevealWords(ctx context.Context, current, target string, emit func(RevealStep)) (string, error) {
	state := current
	for _, word := range revealWords(target) {
		if err := sleepCtx(ctx, a.WordDelay); err != nil {
			return state, err
		}
		piece := wordSeparator(state) + word
		state += piece
		if emit != nil {
			emit(RevealStep{Piece: piece, State: state})
		}
	}
	return state, nil
}

// RevealChars appends target one character at a time.
func (a *Animator) RevealChars(ctx context.Context, current, target string, emit func(RevealStep)) (string, error) {
	state := current
	for _, r := range target {
		if err := sleepCtx(ctx, a.CharDelay); err != nil {
			return state, err
		}
		piece := string(r)
		state += piece
		if emit != nil {
			emit(RevealStep{Piece: piece, State: state})
		}
	}
	return state, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 || ctx.Err() != nil {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
