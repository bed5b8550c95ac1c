package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrInvalidRange = errors.New("invalid text range")

// EssayDocument is the single growing essay buffer. Apart from Append it only changes through
// an explicit full replace (user edit) or a range substitution (sentence enhancement).
type EssayDocument struct {
	mu   sync.RWMutex
	text strings.Builder
}

func NewEssayDocument(initial string) *EssayDocument {
	d := &EssayDocument{}
	d.text.WriteString(initial)
	return d
}

func (d *EssayDocument) Append(piece string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text.WriteString(piece)
}

func (d *EssayDocument) Replace(full string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text.Reset()
	d.text.WriteString(full)
}

// ReplaceRange substitutes the byte range [start, end) with text.
func (d *EssayDocument) ReplaceRange(start, end int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	current := d.text.String()
	if err := checkRange(current, start, end); err != nil {
		return err
	}

	next := current[:start] + text + current[end:]
	d.text.Reset()
	d.text.WriteString(next)
	return nil
}

// Slice returns the text in [start, end).
func (d *EssayDocument) Slice(start, end int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	current := d.text.String()
	if err := checkRange(current, start, end); err != nil {
		return "", err
	}
	return current[start:end], nil
}

func (d *EssayDocument) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.String()
}

func (d *EssayDocument) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text.Len()
}

func checkRange(s string, start, end int) error {
	if start < 0 || end < start || end > len(s) {
		return fmt.Errorf("%w: [%d, %d) of %d bytes", ErrInvalidRange, start, end, len(s))
	}
	return nil
}
