package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "attendance.marked", Body: []byte(`{"record_id":"r1"}`)}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-ch:
		assert.Equal(t, "attendance.marked", msg.Type)
		assert.JSONEq(t, `{"record_id":"r1"}`, string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestInMemoryPublishHonoursContext(t *testing.T) {
	q := NewInMemory(1)
	require.NoError(t, q.Publish(context.Background(), Message{Type: "a"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Publish(ctx, Message{Type: "b"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunLogsHandlerErrorsAndContinues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewInMemory(4)
	require.NoError(t, q.Publish(ctx, Message{Type: "bad"}))
	require.NoError(t, q.Publish(ctx, Message{Type: "good"}))

	var seen []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Run(ctx, q, func(_ context.Context, msg Message) error {
			seen = append(seen, msg.Type)
			if len(seen) == 2 {
				cancel()
			}
			if msg.Type == "bad" {
				return errors.New("boom")
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run did not stop")
	}
	assert.Equal(t, []string{"bad", "good"}, seen)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	key := "rollbook:test:" + time.Now().Format("150405.000000")
	defer client.Del(context.Background(), key)

	q := NewRedisQueue(client, key)
	require.NoError(t, q.Publish(ctx, Message{Type: "attendance.marked", Body: []byte(`{"n":1}`)}))

	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	msg := <-ch
	assert.Equal(t, "attendance.marked", msg.Type)
	assert.JSONEq(t, `{"n":1}`, string(msg.Body))
}
