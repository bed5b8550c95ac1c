package services

import (
	"bufio"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// chunkedReader hands out the stream in the given chunk sizes.
type chunkedReader struct {
	data  []byte
	sizes []int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := len(r.data)
	if len(r.sizes) > 0 {
		n = min(r.sizes[0], n)
		r.sizes = r.sizes[1:]
	}
	n = copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (c *closeRecorder) Close() error {
	c.closed = true
	return nil
}

func collect(t *testing.T, r io.Reader) string {
	t.Helper()
	text, err := CollectFragments(NewSSEDecoder(r, nil), nil)
	require.NoError(t, err)
	return text
}

func TestSSEDecoder_BasicStream(t *testing.T) {
	stream := SSEStream("Hello", ", ", "world")
	dec := NewSSEDecoder(strings.NewReader(stream), nil)

	var got []string
	for {
		frag, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		if frag.Done {
			got = append(got, "<done>")
			continue
		}
		got = append(got, frag.Text)
	}

	assert.Equal(t, []string{"Hello", ", ", "world", "<done>"}, got)

	_, err := dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEDecoder_MissingDeltaYieldsEmptyFragment(t *testing.T) {
	stream := "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n" +
		"data: {\"id\":\"x\"}\n\n" +
		SSEStream("ok")
	dec := NewSSEDecoder(strings.NewReader(stream), nil)

	first, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "", first.Text)
	assert.False(t, first.Done)

	second, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "", second.Text)

	third, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", third.Text)
}

func TestSSEDecoder_SkipsMalformedRecords(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	stream := "data: {not json\n\n" + ": keep-alive\n" + "event: ping\n" + SSEStream("A", "B")

	dec := NewSSEDecoder(strings.NewReader(stream), zap.New(core))
	text, err := CollectFragments(dec, nil)

	require.NoError(t, err)
	assert.Equal(t, "AB", text)
	assert.Equal(t, 1, dec.Skipped())
	assert.Equal(t, 1, logs.FilterMessage("skipping stream record").Len())
}

func TestSSEDecoder_CRLFLines(t *testing.T) {
	stream := strings.ReplaceAll(SSEStream("x", "y"), "\n", "\r\n")
	assert.Equal(t, "xy", collect(t, strings.NewReader(stream)))
}

func TestSSEDecoder_DiscardsTrailingPartialLine(t *testing.T) {
	stream := EncodeSSEChunk("kept") + `data: {"choices":[{"delta":{"content":"lost"}}]}`
	assert.Equal(t, "kept", collect(t, strings.NewReader(stream)))
}

func TestSSEDecoder_ConnectionCloseWithoutDone(t *testing.T) {
	stream := EncodeSSEChunk("a") + EncodeSSEChunk("b")
	assert.Equal(t, "ab", collect(t, strings.NewReader(stream)))
}

func TestSSEDecoder_SplitMultiByteRune(t *testing.T) {
	stream := SSEStream("café ", "naïve ", "日本語")
	raw := []byte(stream)

	// split every stream at every byte offset, including inside multi-byte runes
	for cut := 1; cut < len(raw); cut++ {
		r := &chunkedReader{data: raw, sizes: []int{cut}}
		assert.Equal(t, "café naïve 日本語", collect(t, r), "cut at %d", cut)
	}
}

func TestSSEDecoder_ChunkingInvariance(t *testing.T) {
	stream := SSEStream(
		`{"text_to_write": "The night before my exam,`,
		` the power went out.\n`,
		`", "question_to_ask": "What did you do next?"}`,
		"✓ done",
	)
	whole := collect(t, strings.NewReader(stream))

	assert.Equal(t, whole, collect(t, iotest.OneByteReader(strings.NewReader(stream))))
	assert.Equal(t, whole, collect(t, iotest.HalfReader(strings.NewReader(stream))))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		var sizes []int
		for remaining := len(stream); remaining > 0; {
			n := 1 + rng.Intn(17)
			sizes = append(sizes, n)
			remaining -= n
		}
		r := &chunkedReader{data: []byte(stream), sizes: sizes}
		require.Equal(t, whole, collect(t, r), "split %v", sizes)
	}
}

func TestSSEDecoder_NetworkFailureIsTerminal(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader(EncodeSSEChunk("partial")), iotest.ErrReader(boom))

	var seen []string
	text, err := CollectFragments(NewSSEDecoder(r, nil), func(s string) { seen = append(seen, s) })

	assert.Equal(t, "partial", text)
	assert.Equal(t, []string{"partial"}, seen)
	assert.ErrorIs(t, err, ErrStreamAborted)
	assert.ErrorIs(t, err, boom)
}

// endlessReader never produces a newline and never ends.
type endlessReader struct{}

func (endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'x'
	}
	return len(p), nil
}

func TestSSEDecoder_OverlongLineIsTerminal(t *testing.T) {
	dec := NewSSEDecoder(io.MultiReader(strings.NewReader(EncodeSSEChunk("ok")), endlessReader{}), nil)

	frag, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", frag.Text)

	_, err = dec.Next()
	assert.ErrorIs(t, err, ErrStreamAborted)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
	_, err = dec.Next()
	assert.ErrorIs(t, err, ErrStreamAborted)
}

func TestSSEDecoder_LongRecordWithinLimit(t *testing.T) {
	long := strings.Repeat("word ", 10000)

	text, err := CollectFragments(NewSSEDecoder(strings.NewReader(SSEStream(long)), nil), nil)

	require.NoError(t, err)
	assert.Equal(t, long, text)
}

func TestSSEDecoder_CloseCancelsIterator(t *testing.T) {
	body := &closeRecorder{Reader: strings.NewReader(SSEStream("one", "two"))}
	dec := NewSSEDecoder(body, nil)

	frag, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "one", frag.Text)

	require.NoError(t, dec.Close())
	assert.True(t, body.closed)

	_, err = dec.Next()
	assert.ErrorIs(t, err, ErrStreamClosed)
}
