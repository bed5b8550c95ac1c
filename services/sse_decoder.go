package services

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"cowriter/models"

	"go.uber.org/zap"
)

const (
	sseDataPrefix = "data: "
	sseDone       = "[DONE]"
	sseReadSize   = 4096
	// longest pending line accepted before the stream is treated as broken
	sseMaxLine = bufio.MaxScanTokenSize
)

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// SSEDecoder turns a chat-completion event stream into content fragments. It is a pull
// iterator: every call to Next reads only as much of the body as it needs.
type SSEDecoder struct {
	r      io.Reader
	logger *zap.Logger

	buf     []byte
	readBuf []byte
	readErr error
	err     error
	closed  atomic.Bool
	skipped int
}

func NewSSEDecoder(r io.Reader, logger *zap.Logger) *SSEDecoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SSEDecoder{
		r:       r,
		logger:  logger,
		readBuf: make([]byte, sseReadSize),
	}
}

// Next returns the next fragment. It returns io.EOF after the [DONE] record or when the
// connection closes cleanly; a partial line left at that point is discarded.
func (d *SSEDecoder) Next() (models.StreamFragment, error) {
	for {
		if d.closed.Load() {
			return models.StreamFragment{}, ErrStreamClosed
		}
		if d.err != nil {
			return models.StreamFragment{}, d.err
		}

		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			line := d.buf[:i]
			d.buf = d.buf[i+1:]

			frag, ok := d.decodeLine(line)
			if !ok {
				continue
			}
			if frag.Done {
				d.err = io.EOF
			}
			return frag, nil
		}

		if d.readErr != nil {
			d.buf = nil
			if errors.Is(d.readErr, io.EOF) {
				d.err = io.EOF
			} else {
				d.err = fmt.Errorf("%w: %w", ErrStreamAborted, d.readErr)
			}
			continue
		}
		if len(d.buf) > sseMaxLine {
			d.buf = nil
			d.err = fmt.Errorf("%w: %w", ErrStreamAborted, bufio.ErrTooLong)
			continue
		}

		n, err := d.r.Read(d.readBuf)
		d.buf = append(d.buf, d.readBuf[:n]...)
		d.readErr = err
	}
}

// Close stops the iterator and releases the underlying body. The stream cannot be resumed.
func (d *SSEDecoder) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	if c, ok := d.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Skipped reports how many malformed records were dropped.
func (d *SSEDecoder) Skipped() int {
	return d.skipped
}

func (d *SSEDecoder) decodeLine(line []byte) (models.StreamFragment, bool) {
	text := strings.TrimSuffix(string(line), "\r")
	if !strings.HasPrefix(text, sseDataPrefix) {
		return models.StreamFragment{}, false
	}

	payload := strings.TrimPrefix(text, sseDataPrefix)
	if payload == sseDone {
		return models.StreamFragment{Done: true}, true
	}

	var chunk streamChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		d.skipped++
		d.logger.Warn("skipping stream record", zap.Error(&StreamDecodeError{Record: payload, Err: err}))
		return models.StreamFragment{}, false
	}

	if len(chunk.Choices) == 0 {
		return models.StreamFragment{}, true
	}
	return models.StreamFragment{Text: chunk.Choices[0].Delta.Content}, true
}

// CollectFragments drains dec and returns the concatenated text. onFragment, when set, sees
// every fragment in arrival order. On a terminal error the text gathered so far is returned.
func CollectFragments(dec *SSEDecoder, onFragment func(string)) (string, error) {
	var full strings.Builder
	for {
		frag, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return full.String(), nil
		}
		if err != nil {
			return full.String(), err
		}
		if frag.Text == "" {
			continue
		}
		full.WriteString(frag.Text)
		if onFragment != nil {
			onFragment(frag.Text)
		}
	}
}
