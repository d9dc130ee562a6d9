package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingSender captures delivered lines, optionally failing after a set
// number of successful sends.
type recordingSender struct {
	mu        sync.Mutex
	lines     []string
	failAfter int
	closed    bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{failAfter: -1}
}

func (that *recordingSender) Send(line string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.failAfter >= 0 && len(that.lines) >= that.failAfter {
		return errors.New("peer gone")
	}

	that.lines = append(that.lines, line)

	return nil
}

func (that *recordingSender) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true

	return nil
}

func (that *recordingSender) Lines() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]string(nil), that.lines...)
}

func (that *recordingSender) Closed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

func startDispatcher(t *testing.T) *Dispatcher {
	t.Helper()

	dispatcher := NewDispatcher(testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dispatcher.Run(ctx)

	return dispatcher
}

func TestDispatcher_Broadcast(t *testing.T) {
	t.Run("Delivers every line to every client in queue order", func(t *testing.T) {
		// Given: two attached clients
		dispatcher := startDispatcher(t)
		first := newRecordingSender()
		second := newRecordingSender()
		dispatcher.Attach(0, first)
		dispatcher.Attach(1, second)

		// When: three lines are broadcast
		dispatcher.Broadcast("one")
		dispatcher.Broadcast("two")
		dispatcher.Broadcast("three")

		// Then: both clients see all three lines in the broadcast order
		want := []string{"one", "two", "three"}
		require.Eventually(t, func() bool {
			return len(first.Lines()) == 3 && len(second.Lines()) == 3
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, want, first.Lines())
		assert.Equal(t, want, second.Lines())
	})
}

func TestDispatcher_SendTo(t *testing.T) {
	t.Run("Unicast reaches only its target", func(t *testing.T) {
		// Given: two attached clients
		dispatcher := startDispatcher(t)
		target := newRecordingSender()
		other := newRecordingSender()
		dispatcher.Attach(0, target)
		dispatcher.Attach(1, other)

		// When: a unicast goes to client 0 followed by a broadcast
		dispatcher.SendTo(0, "secret")
		dispatcher.Broadcast("public")

		// Then: only the target saw the unicast, and it arrived first
		require.Eventually(t, func() bool {
			return len(target.Lines()) == 2 && len(other.Lines()) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"secret", "public"}, target.Lines())
		assert.Equal(t, []string{"public"}, other.Lines())
	})
}

func TestDispatcher_PrunesFailedClient(t *testing.T) {
	t.Run("A failing client is dropped without affecting the rest", func(t *testing.T) {
		// Given: one healthy client and one whose sends always fail
		dispatcher := startDispatcher(t)
		healthy := newRecordingSender()
		broken := newRecordingSender()
		broken.failAfter = 0
		dispatcher.Attach(0, healthy)
		dispatcher.Attach(1, broken)

		// When: lines are broadcast
		dispatcher.Broadcast("one")
		dispatcher.Broadcast("two")

		// Then: the healthy client gets everything and the broken one is
		// detached and closed
		require.Eventually(t, func() bool {
			return len(healthy.Lines()) == 2 && broken.Closed()
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"one", "two"}, healthy.Lines())
		assert.Empty(t, broken.Lines())
	})
}

func TestDispatcher_Detach(t *testing.T) {
	t.Run("A detached client receives nothing further", func(t *testing.T) {
		// Given: an attached client that saw one line
		dispatcher := startDispatcher(t)
		sender := newRecordingSender()
		dispatcher.Attach(0, sender)

		dispatcher.Broadcast("before")
		require.Eventually(t, func() bool {
			return len(sender.Lines()) == 1
		}, time.Second, 5*time.Millisecond)

		// When: the client detaches and more lines are broadcast
		dispatcher.Detach(0)
		dispatcher.Broadcast("after")

		// Then: the later line never arrives and detaching again is safe
		dispatcher.Detach(0)
		require.Eventually(t, func() bool {
			return sender.Closed()
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, []string{"before"}, sender.Lines())
	})
}
