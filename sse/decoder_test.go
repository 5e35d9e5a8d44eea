package sse_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/mock"
	"github.com/fwojciec/drip/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains src through a fresh decoder.
func collect(t *testing.T, src drip.ChunkSource, opts ...sse.Option) []string {
	t.Helper()
	var lines []string
	for line, err := range sse.Lines(src, sse.NewDecoder(opts...)) {
		require.NoError(t, err)
		lines = append(lines, line)
	}
	return lines
}

// splitAt cuts s into chunks at the given offsets.
func splitAt(s string, offsets ...int) []string {
	var chunks []string
	prev := 0
	for _, off := range offsets {
		chunks = append(chunks, s[prev:off])
		prev = off
	}
	return append(chunks, s[prev:])
}

func TestDecoder_Write(t *testing.T) {
	t.Parallel()

	t.Run("complete lines in one chunk", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Equal(t, []string{"a", "", "b"}, d.Write([]byte("a\n\nb\n")))
		assert.Zero(t, d.Buffered())
	})

	t.Run("partial line is buffered", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Empty(t, d.Write([]byte("data: he")))
		assert.Equal(t, 8, d.Buffered())
		assert.Equal(t, []string{"data: hello"}, d.Write([]byte("llo\n")))
		assert.Zero(t, d.Buffered())
	})

	t.Run("strips one trailing carriage return", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Equal(t, []string{"a", "b\r"}, d.Write([]byte("a\r\nb\r\r\n")))
	})

	t.Run("carriage return split from newline", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Empty(t, d.Write([]byte("a\r")))
		assert.Equal(t, []string{"a"}, d.Write([]byte("\n")))
	})

	t.Run("empty chunk yields nothing", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		assert.Empty(t, d.Write(nil))
	})
}

func TestDecoder_Flush(t *testing.T) {
	t.Parallel()

	t.Run("emits unterminated residual once", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		d.Write([]byte("a\ndata: [DONE]\r"))
		line, ok := d.Flush()
		require.True(t, ok)
		assert.Equal(t, "data: [DONE]", line)

		_, ok = d.Flush()
		assert.False(t, ok)
	})

	t.Run("nothing buffered", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder()
		d.Write([]byte("a\n"))
		_, ok := d.Flush()
		assert.False(t, ok)
	})
}

func TestDecoder_Reset(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	d.Write([]byte("done\npartial"))
	assert.Equal(t, 7, d.Reset())
	assert.Zero(t, d.Buffered())
	_, ok := d.Flush()
	assert.False(t, ok)
}

func TestDecoder_MaxLineSize(t *testing.T) {
	t.Parallel()

	t.Run("oversized line within one chunk is dropped", func(t *testing.T) {
		t.Parallel()
		d := sse.NewDecoder(sse.WithMaxLineSize(4))
		assert.Equal(t, []string{"ok", "fine"}, d.Write([]byte("ok\ntoolong\nfine\n")))
		assert.Equal(t, 8, d.Dropped())
	})

	t.Run("oversized line across chunks is skipped to the next newline", func(t *testing.T) {
		t.Parallel()
		lines := collect(t, mock.Chunks("ab", "cdef", "gh\nok\n"), sse.WithMaxLineSize(4))
		assert.Equal(t, []string{"ok"}, lines)
	})

	t.Run("line at the limit is kept", func(t *testing.T) {
		t.Parallel()
		lines := collect(t, mock.Chunks("ab", "cd\n"), sse.WithMaxLineSize(4))
		assert.Equal(t, []string{"abcd"}, lines)
	})

	t.Run("non-positive size keeps default", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("x", 4096)
		lines := collect(t, mock.Chunks(long+"\n"), sse.WithMaxLineSize(0))
		assert.Equal(t, []string{long}, lines)
	})
}

func TestLines_ResetAfterBreak(t *testing.T) {
	t.Parallel()
	d := sse.NewDecoder()
	for line := range sse.Lines(mock.Chunks("a\nbb\ncc\nrest"), d) {
		assert.Equal(t, "a", line)
		break
	}
	assert.Equal(t, len("bb\ncc\nrest"), d.Reset())
	assert.Zero(t, d.Reset())
}

func TestLines(t *testing.T) {
	t.Parallel()

	t.Run("flushes residual after EOF", func(t *testing.T) {
		t.Parallel()
		lines := collect(t, mock.Chunks("data: a\n", "data: [DONE]"))
		assert.Equal(t, []string{"data: a", "data: [DONE]"}, lines)
	})

	t.Run("does not re-emit flushed lines", func(t *testing.T) {
		t.Parallel()
		lines := collect(t, mock.Chunks("a\nb\n"))
		assert.Equal(t, []string{"a", "b"}, lines)
	})

	t.Run("yields source error and stops", func(t *testing.T) {
		t.Parallel()
		readErr := errors.New("connection reset")
		calls := 0
		src := &mock.ChunkSource{NextFn: func() ([]byte, error) {
			calls++
			if calls == 1 {
				return []byte("a\nparti"), nil
			}
			return nil, readErr
		}}
		var lines []string
		var gotErr error
		for line, err := range sse.Lines(src, sse.NewDecoder()) {
			if err != nil {
				gotErr = err
				continue
			}
			lines = append(lines, line)
		}
		assert.Equal(t, []string{"a"}, lines)
		assert.ErrorIs(t, gotErr, readErr)
	})

	t.Run("break stops pulling chunks", func(t *testing.T) {
		t.Parallel()
		calls := 0
		src := &mock.ChunkSource{NextFn: func() ([]byte, error) {
			calls++
			return []byte("x\n"), nil
		}}
		for range sse.Lines(src, sse.NewDecoder()) {
			break
		}
		assert.Equal(t, 1, calls)
	})

	t.Run("chunk-boundary invariance", func(t *testing.T) {
		t.Parallel()
		body := ": keep-alive\r\n" +
			`data: {"choices":[{"delta":{"content":"Hél"}}]}` + "\r\n\r\n" +
			`data: {"choices":[{"delta":{"content":"lo"}}]}` + "\n\n" +
			"data: [DONE]\n"
		want := collect(t, mock.Chunks(body))

		for i := 0; i <= len(body); i++ {
			assert.Equal(t, want, collect(t, mock.Chunks(splitAt(body, i)...)), "split at %d", i)
		}
		for i := 0; i <= len(body); i++ {
			for j := i; j <= len(body); j += 7 {
				assert.Equal(t, want, collect(t, mock.Chunks(splitAt(body, i, j)...)), "split at %d,%d", i, j)
			}
		}

		bytewise := make([]string, len(body))
		for i := range body {
			bytewise[i] = body[i : i+1]
		}
		assert.Equal(t, want, collect(t, mock.Chunks(bytewise...)))
	})
}

func TestLines_EOFWithTrailingChunk(t *testing.T) {
	t.Parallel()
	calls := 0
	src := &mock.ChunkSource{NextFn: func() ([]byte, error) {
		calls++
		if calls == 1 {
			return []byte("a\nb"), io.EOF
		}
		t.Fatal("Next called after EOF")
		return nil, nil
	}}
	lines := collect(t, src)
	assert.Equal(t, []string{"a", "b"}, lines)
}
