package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memInbox struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (m *memInbox) Record(_ context.Context, eventID, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[eventID] {
		return false, nil
	}
	m.seen[eventID] = true
	return true, nil
}

func (m *memInbox) Forget(_ context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, eventID)
	return nil
}

func (m *memInbox) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *memInbox) has(eventID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[eventID]
}

// chanReader hands out queued messages, then blocks until ctx is done.
type chanReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
	closed    bool
}

func (r *chanReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *chanReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *chanReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func (r *chanReader) Close() error {
	r.closed = true
	return nil
}

func event(id string, offset int64) kafka.Message {
	msg := kafkax.NewEventMessage(context.Background(),
		kafkax.EventMeta{EventID: id, EventType: "clinic.appointment.booked.v1"}, "appt-1", []byte(`{}`))
	msg.Offset = offset
	return msg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessSkipsDuplicates(t *testing.T) {
	var calls int
	c := newConsumer(nil, quietLogger(), &memInbox{}, Config{}, func(context.Context, kafka.Message) error {
		calls++
		return nil
	})

	require.NoError(t, c.process(context.Background(), event("evt-1", 1)))
	require.NoError(t, c.process(context.Background(), event("evt-1", 2)))
	require.NoError(t, c.process(context.Background(), event("evt-2", 3)))
	assert.Equal(t, 2, calls)
}

func TestProcessRetriesHandler(t *testing.T) {
	var calls int
	c := newConsumer(nil, quietLogger(), &memInbox{}, Config{MaxAttempts: 3, Backoff: time.Millisecond}, func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("smtp unavailable")
		}
		return nil
	})

	require.NoError(t, c.process(context.Background(), event("evt-1", 1)))
	assert.Equal(t, 3, calls)
}

func TestProcessDropsEventsWithoutID(t *testing.T) {
	inbox := &memInbox{}
	called := false
	c := newConsumer(nil, quietLogger(), inbox, Config{}, func(context.Context, kafka.Message) error {
		called = true
		return nil
	})

	require.NoError(t, c.process(context.Background(), kafka.Message{Topic: "clinic.appointment.booked.v1"}))
	assert.False(t, called)
	assert.Empty(t, inbox.seen)
}

func TestProcessInboxFailureSkipsHandler(t *testing.T) {
	called := false
	c := newConsumer(nil, quietLogger(), &memInbox{err: errors.New("db down")}, Config{}, func(context.Context, kafka.Message) error {
		called = true
		return nil
	})
	require.Error(t, c.process(context.Background(), event("evt-1", 1)))
	assert.False(t, called)
}

func TestProcessReleasesInboxAfterExhaustedRetries(t *testing.T) {
	inbox := &memInbox{}
	var calls int
	c := newConsumer(nil, quietLogger(), inbox, Config{MaxAttempts: 2, Backoff: time.Millisecond}, func(context.Context, kafka.Message) error {
		calls++
		if calls <= 2 {
			return errors.New("notifications insert failed")
		}
		return nil
	})

	require.Error(t, c.process(context.Background(), event("evt-1", 1)))
	assert.False(t, inbox.has("evt-1"))

	require.NoError(t, c.process(context.Background(), event("evt-1", 1)))
	assert.Equal(t, 3, calls)
	assert.True(t, inbox.has("evt-1"))
}

func runConsumer(t *testing.T, c *Consumer) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("consumer did not stop")
		}
	}
}

func TestRunHoldsOffsetWhileInboxFails(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 1)}
	reader.msgs <- event("evt-1", 9)

	inbox := &memInbox{err: errors.New("db down")}
	handled := make(chan string, 1)
	c := newConsumer(reader, quietLogger(), inbox, Config{MaxAttempts: 1, Backoff: 5 * time.Millisecond}, func(_ context.Context, msg kafka.Message) error {
		handled <- kafkax.ExtractEventMeta(msg).EventID
		return nil
	})
	stop := runConsumer(t, c)
	defer stop()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, reader.commits())
	assert.Empty(t, handled)

	inbox.setErr(nil)
	select {
	case id := <-handled:
		assert.Equal(t, "evt-1", id)
	case <-time.After(time.Second):
		t.Fatal("event was not handled after the inbox recovered")
	}
	require.Eventually(t, func() bool {
		return len(reader.commits()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []int64{9}, reader.commits())
}

func TestRunReprocessesEventAfterHandlerGivesUp(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 1)}
	reader.msgs <- event("evt-1", 4)

	var mu sync.Mutex
	calls := 0
	c := newConsumer(reader, quietLogger(), &memInbox{}, Config{MaxAttempts: 2, Backoff: time.Millisecond}, func(context.Context, kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls <= 2 {
			return errors.New("smtp unavailable")
		}
		return nil
	})
	stop := runConsumer(t, c)
	defer stop()

	require.Eventually(t, func() bool {
		return len(reader.commits()) == 1
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
	assert.Equal(t, []int64{4}, reader.commits())
}

func TestRunCommitsAndStops(t *testing.T) {
	reader := &chanReader{msgs: make(chan kafka.Message, 2)}
	reader.msgs <- event("evt-1", 10)
	reader.msgs <- event("evt-2", 11)

	handled := make(chan string, 2)
	c := newConsumer(reader, quietLogger(), &memInbox{}, Config{}, func(_ context.Context, msg kafka.Message) error {
		handled <- kafkax.ExtractEventMeta(msg).EventID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Equal(t, "evt-1", <-handled)
	require.Equal(t, "evt-2", <-handled)
	require.Eventually(t, func() bool {
		reader.mu.Lock()
		defer reader.mu.Unlock()
		return len(reader.committed) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.True(t, reader.closed)
	assert.Equal(t, []int64{10, 11}, reader.committed)
}
