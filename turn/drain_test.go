package turn_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/mock"
	"github.com/fwojciec/drip/sse"
	"github.com/fwojciec/drip/turn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"
)

// dataLine returns one data frame carrying text as its delta.
func dataLine(t *testing.T, text string) string {
	t.Helper()
	payload, err := sjson.Set(`{"choices":[{"delta":{}}]}`, "choices.0.delta.content", text)
	require.NoError(t, err)
	return "data: " + payload + "\n\n"
}

// blockingSource yields chunks in order and then blocks until closed.
func blockingSource(chunks ...string) *mock.ChunkSource {
	closed := make(chan struct{})
	var once sync.Once
	i := 0
	return &mock.ChunkSource{
		NextFn: func() ([]byte, error) {
			if i < len(chunks) {
				i++
				return []byte(chunks[i-1]), nil
			}
			<-closed
			return nil, errors.New("read on closed body")
		},
		CloseFn: func() error {
			once.Do(func() { close(closed) })
			return nil
		},
	}
}

func drain(t *testing.T, src drip.ChunkSource, obs drip.Observer) (drip.Conversation, *turn.Accumulator, error) {
	t.Helper()
	conv := drip.Conversation{drip.UserMessage("hi")}
	acc := turn.NewAccumulator(&conv, turn.WithObserver(obs))
	err := turn.Drain(context.Background(), src, acc, sse.NewDecoder(), nil)
	return conv, acc, err
}

func TestDrain(t *testing.T) {
	t.Parallel()

	t.Run("delta split mid-object", func(t *testing.T) {
		t.Parallel()
		src := mock.Chunks(
			`data: {"choices":[{"delta":{"content":"Hel`,
			`lo"}}]}`+"\n\n",
			"data: [DONE]\n\n",
		)
		conv, acc, err := drain(t, src, nil)
		require.NoError(t, err)
		assert.Equal(t, drip.TurnCompleted, acc.State())
		require.Len(t, conv, 2)
		assert.Equal(t, drip.AssistantMessage("Hello"), conv[1])
		assert.Equal(t, 1, src.Closed())
	})

	t.Run("end of stream without sentinel completes", func(t *testing.T) {
		t.Parallel()
		src := mock.Chunks(dataLine(t, "a"), dataLine(t, "b"))
		conv, acc, err := drain(t, src, nil)
		require.NoError(t, err)
		assert.Equal(t, drip.TurnCompleted, acc.State())
		assert.Equal(t, "ab", conv[1].Content)
	})

	t.Run("unterminated final line is flushed", func(t *testing.T) {
		t.Parallel()
		src := mock.Chunks(`data: {"choices":[{"delta":{"content":"tail"}}]}`)
		conv, _, err := drain(t, src, nil)
		require.NoError(t, err)
		assert.Equal(t, "tail", conv[1].Content)
	})

	t.Run("empty stream completes with no message", func(t *testing.T) {
		t.Parallel()
		obs := &mock.Observer{}
		conv, acc, err := drain(t, mock.Chunks(), obs)
		require.NoError(t, err)
		assert.Equal(t, drip.TurnCompleted, acc.State())
		assert.Len(t, conv, 1)
		require.Len(t, obs.Updates(), 1)
		assert.Equal(t, drip.TurnCompleted, obs.Updates()[0].State)
	})

	t.Run("chunk-boundary invariance", func(t *testing.T) {
		t.Parallel()
		body := ": OPENROUTER PROCESSING\r\n\r\n" +
			dataLine(t, "Hé") +
			dataLine(t, "llo, ") +
			`data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\r\n\r\n" +
			dataLine(t, "wörld") +
			"data: [DONE]\n\n"

		for i := 0; i <= len(body); i++ {
			obs := &mock.Observer{}
			conv, acc, err := drain(t, mock.Chunks(body[:i], body[i:]), obs)
			require.NoError(t, err, "split at %d", i)
			assert.Equal(t, drip.TurnCompleted, acc.State(), "split at %d", i)
			assert.Equal(t, "Héllo, wörld", conv[1].Content, "split at %d", i)
			assert.Len(t, obs.Updates(), 4, "split at %d", i)
		}

		bytewise := make([]string, len(body))
		for i := range body {
			bytewise[i] = body[i : i+1]
		}
		conv, _, err := drain(t, mock.Chunks(bytewise...), nil)
		require.NoError(t, err)
		assert.Equal(t, "Héllo, wörld", conv[1].Content)
	})

	t.Run("sentinel stops reading", func(t *testing.T) {
		t.Parallel()
		reads := 0
		chunks := []string{
			dataLine(t, "A"),
			"data: [DONE]\n\ndata: {\"choices\":[{\"del",
			dataLine(t, "B"),
		}
		src := &mock.ChunkSource{NextFn: func() ([]byte, error) {
			reads++
			return []byte(chunks[reads-1]), nil
		}}
		conv, acc, err := drain(t, src, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, reads)
		assert.Equal(t, drip.TurnCompleted, acc.State())
		assert.Equal(t, "A", conv[1].Content)
		assert.Equal(t, 1, src.Closed())
	})

	t.Run("well-formed frames after the sentinel are discarded", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		after := dataLine(t, "B") + `data: {"choices":[{"del`
		src := mock.Chunks(dataLine(t, "A"), "data: [DONE]\n"+after, dataLine(t, "C"))

		conv := drip.Conversation{drip.UserMessage("hi")}
		acc := turn.NewAccumulator(&conv)
		require.NoError(t, turn.Drain(context.Background(), src, acc, sse.NewDecoder(), logger))

		assert.Equal(t, drip.TurnCompleted, acc.State())
		require.Len(t, conv, 2)
		assert.Equal(t, "A", conv[1].Content)
		assert.Contains(t, buf.String(), "discarded bytes after sentinel")
		assert.Contains(t, buf.String(), fmt.Sprintf("bytes=%d", len(after)))
	})

	t.Run("comments and blank lines are transparent", func(t *testing.T) {
		t.Parallel()
		plain, _, err := drain(t, mock.Chunks(dataLine(t, "x"), dataLine(t, "y")), nil)
		require.NoError(t, err)
		noisy, _, err := drain(t, mock.Chunks(
			": ping\n\n\n",
			dataLine(t, "x"),
			": ping\nevent: message\n\n",
			dataLine(t, "y"),
			":\n",
		), nil)
		require.NoError(t, err)
		assert.Equal(t, plain, noisy)
	})

	t.Run("malformed frames are dropped and logged", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		conv := drip.Conversation{drip.UserMessage("hi")}
		acc := turn.NewAccumulator(&conv)
		src := mock.Chunks(
			dataLine(t, "good "),
			"data: {\"choices\":[{\"delta\":\n",
			"data: not json\n",
			dataLine(t, "frames"),
		)
		err := turn.Drain(context.Background(), src, acc, sse.NewDecoder(), logger)
		require.NoError(t, err)
		assert.Equal(t, drip.TurnCompleted, acc.State())
		assert.Equal(t, "good frames", conv[1].Content)
		assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("dropped malformed frame")))
	})

	t.Run("read failure rolls back the turn", func(t *testing.T) {
		t.Parallel()
		calls := 0
		src := &mock.ChunkSource{NextFn: func() ([]byte, error) {
			calls++
			if calls == 1 {
				return []byte(dataLine(t, "partial")), nil
			}
			return nil, errors.New("connection reset by peer")
		}}
		obs := &mock.Observer{}
		conv, acc, err := drain(t, src, obs)

		var de *drip.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, drip.KindTransport, de.Kind)
		assert.Equal(t, "connection reset by peer", de.Message)
		assert.Equal(t, drip.Conversation{drip.UserMessage("hi")}, conv)
		assert.Equal(t, drip.TurnErrored, acc.State())
		assert.Equal(t, 1, src.Closed())

		updates := obs.Updates()
		require.Len(t, updates, 2)
		assert.Len(t, updates[0].Conversation, 2)
		assert.Equal(t, drip.TurnErrored, updates[1].State)
		assert.Len(t, updates[1].Conversation, 1)
	})

	t.Run("first chunk starts streaming", func(t *testing.T) {
		t.Parallel()
		conv := drip.Conversation{drip.UserMessage("hi")}
		acc := turn.NewAccumulator(&conv)
		var states []drip.TurnState
		calls := 0
		src := &mock.ChunkSource{NextFn: func() ([]byte, error) {
			states = append(states, acc.State())
			calls++
			if calls == 1 {
				return []byte(": ping\n"), nil
			}
			return nil, errors.New("gone")
		}}
		_ = turn.Drain(context.Background(), src, acc, sse.NewDecoder(), nil)
		assert.Equal(t, []drip.TurnState{drip.TurnIdle, drip.TurnStreaming}, states)
	})
}

func TestDrain_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("aborts a blocked read", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		src := blockingSource(dataLine(t, "Hel"), dataLine(t, "lo"))
		obs := &mock.Observer{ObserveFn: func(u drip.Update) {
			if last, _ := u.Conversation.Last(); last.Content == "Hello" {
				cancel()
			}
		}}
		conv := drip.Conversation{drip.UserMessage("hi")}
		acc := turn.NewAccumulator(&conv, turn.WithObserver(obs))

		err := turn.Drain(ctx, src, acc, sse.NewDecoder(), nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, drip.TurnStreaming, acc.State())
		assert.Equal(t, "Hello", conv[1].Content)
		assert.Equal(t, 1, src.Closed())
		for _, u := range obs.Updates() {
			assert.False(t, u.State.Terminal())
		}
	})

	t.Run("cancelled before the first chunk", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		src := blockingSource()
		conv := drip.Conversation{drip.UserMessage("hi")}
		obs := &mock.Observer{}
		acc := turn.NewAccumulator(&conv, turn.WithObserver(obs))

		err := turn.Drain(ctx, src, acc, sse.NewDecoder(), nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, drip.TurnIdle, acc.State())
		assert.Len(t, conv, 1)
		assert.Empty(t, obs.Updates())
		assert.Equal(t, 1, src.Closed())
	})

	t.Run("cancelled while waiting for the first chunk", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		src := blockingSource()
		conv := drip.Conversation{drip.UserMessage("hi")}
		acc := turn.NewAccumulator(&conv)

		done := make(chan error, 1)
		go func() { done <- turn.Drain(ctx, src, acc, sse.NewDecoder(), nil) }()
		cancel()

		require.ErrorIs(t, <-done, context.Canceled)
		assert.Equal(t, drip.TurnIdle, acc.State())
		assert.Equal(t, 1, src.Closed())
	})
}
