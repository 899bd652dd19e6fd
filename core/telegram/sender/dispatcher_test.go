package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/shopbot/core/logger"
)

func chatCtx(chatID int64) context.Context {
	return logger.WithUpdateMeta(context.Background(), 1, chatID, chatID)
}

func TestDispatcherKeepsPerChatOrder(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 256})
	var (
		mu  sync.Mutex
		got = map[int64][]int{}
	)
	for i := range 100 {
		for _, chat := range []int64{5, -1001234} {
			require.NoError(t, d.Enqueue(chatCtx(chat), "send.text", "sendMessage", func() error {
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	d.Close()

	for _, chat := range []int64{5, -1001234} {
		require.Len(t, got[chat], 100)
		for i, v := range got[chat] {
			assert.Equal(t, i, v)
		}
	}
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherRetriesTransientErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		if calls.Add(1) == 1 {
			return &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}
		return nil
	}))
	d.Close()
	assert.Equal(t, int32(2), calls.Load())
	assert.Zero(t, d.ErrorCount())
}

func TestDispatcherGivesUpOnPermanentErrors(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, d.Enqueue(chatCtx(1), "send.text", "sendMessage", func() error {
		calls.Add(1)
		return &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	}))
	d.Close()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, uint64(1), d.ErrorCount())
}

func TestDispatcherQueueLimits(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	started, release := make(chan struct{}), make(chan struct{})
	require.NoError(t, d.Enqueue(chatCtx(1), "block", "", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, d.Enqueue(chatCtx(1), "queued", "", func() error { return nil }))
	assert.ErrorIs(t, d.Enqueue(chatCtx(1), "overflow", "", func() error { return nil }), ErrQueueFull)
	assert.Error(t, d.Enqueue(chatCtx(1), "nil", "", nil))

	close(release)
	d.Close()
	d.Close()
	assert.ErrorIs(t, d.Enqueue(chatCtx(1), "late", "", func() error { return nil }), ErrQueueClosed)
}

func TestRedactAndClassify(t *testing.T) {
	err := errors.New(`Post "https://api.telegram.org/bot123456:AA-bb_cc/sendMessage": EOF`)
	assert.NotContains(t, Redact(err), "AA-bb_cc")
	assert.Contains(t, Redact(err), "bot<redacted>")
	assert.Empty(t, Redact(nil))

	cases := map[string]error{
		"timeout":  context.DeadlineExceeded,
		"dial":     &net.OpError{Op: "dial", Err: errors.New("refused")},
		"dns":      &net.DNSError{Err: "no such host", Name: "api.telegram.org"},
		"http_4xx": &tele.Error{Code: 400},
		"http_5xx": &tele.Error{Code: 502},
		"unknown":  errors.New("odd"),
	}
	for want, err := range cases {
		assert.Equal(t, want, Classify(err), want)
	}
	assert.Empty(t, Classify(nil))
}
