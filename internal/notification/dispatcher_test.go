package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport fails the first failures calls with err, then succeeds.
type fakeTransport struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
	sent     []Message
	block    chan struct{}
}

func (f *fakeTransport) Send(_ context.Context, msg Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeTransport) snapshot() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, len(f.sent)
}

func newTestDispatcher(tr Transport, opts Options) (*Dispatcher, *[]time.Duration) {
	var mu sync.Mutex
	delays := []time.Duration{}
	d := NewDispatcher(tr, opts)
	d.sleep = func(_ context.Context, delay time.Duration) bool {
		mu.Lock()
		delays = append(delays, delay)
		mu.Unlock()
		return true
	}
	return d, &delays
}

func msg() Message {
	return Message{To: "ana@example.com", Kind: KindOrderConfirmation, Data: map[string]any{"OrderNumber": "A1"}}
}

func TestDispatcher_RetriesTransientFailures(t *testing.T) {
	tr := &fakeTransport{failures: 2, err: errors.New("connection reset")}
	d, delays := newTestDispatcher(tr, Options{Workers: 1, BaseDelay: 10 * time.Millisecond})

	d.Notify(context.Background(), msg())
	require.NoError(t, d.Close(context.Background()))

	calls, sent := tr.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, *delays)
}

func TestDispatcher_GivesUpAfterThreeAttempts(t *testing.T) {
	tr := &fakeTransport{failures: 10, err: errors.New("timeout")}
	d, _ := newTestDispatcher(tr, Options{Workers: 1})

	d.Notify(context.Background(), msg())
	require.NoError(t, d.Close(context.Background()))

	calls, sent := tr.snapshot()
	assert.Equal(t, 3, calls)
	assert.Equal(t, 0, sent)
}

func TestDispatcher_PermanentFailureNotRetried(t *testing.T) {
	tr := &fakeTransport{failures: 10, err: Permanent(errors.New("550 mailbox unavailable"))}
	d, delays := newTestDispatcher(tr, Options{Workers: 1})

	d.Notify(context.Background(), msg())
	require.NoError(t, d.Close(context.Background()))

	calls, _ := tr.snapshot()
	assert.Equal(t, 1, calls)
	assert.Empty(t, *delays)
}

func TestDispatcher_InvalidRecipientDropped(t *testing.T) {
	tr := &fakeTransport{}
	d, _ := newTestDispatcher(tr, Options{Workers: 1})

	m := msg()
	m.To = "not-an-address"
	d.Notify(context.Background(), m)
	require.NoError(t, d.Close(context.Background()))

	calls, _ := tr.snapshot()
	assert.Equal(t, 0, calls)
}

func TestDispatcher_NotifyDoesNotBlockWhenQueueFull(t *testing.T) {
	tr := &fakeTransport{block: make(chan struct{})}
	d, _ := newTestDispatcher(tr, Options{Workers: 1, Buffer: 1})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			d.Notify(context.Background(), msg())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	close(tr.block)
	require.NoError(t, d.Close(context.Background()))

	_, sent := tr.snapshot()
	assert.Equal(t, 5, sent)
}

func TestDispatcher_NotifyAfterCloseIsDropped(t *testing.T) {
	tr := &fakeTransport{}
	d, _ := newTestDispatcher(tr, Options{Workers: 1})
	require.NoError(t, d.Close(context.Background()))

	assert.NotPanics(t, func() { d.Notify(context.Background(), msg()) })
	calls, _ := tr.snapshot()
	assert.Equal(t, 0, calls)
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	err := Permanent(errors.New("bad address"))
	assert.True(t, IsPermanent(err))
	assert.False(t, IsPermanent(errors.New("timeout")))
}
