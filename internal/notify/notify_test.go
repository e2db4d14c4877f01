package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSink struct {
	mu  sync.Mutex
	got []Mention
	err error
}

func (s *recordingSink) Deliver(_ context.Context, m Mention) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, m)
	return s.err
}

func TestDispatcherDeliversToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	d := NewDispatcher(zap.NewNop(), 8, a, b)

	d.Notify(Mention{Recipient: "x@example.com"}, Mention{Recipient: "y@example.com"})
	d.Close()

	assert.Len(t, a.got, 2)
	assert.Len(t, b.got, 2)
	assert.Equal(t, "x@example.com", a.got[0].Recipient)

	// after close, mentions are ignored
	assert.NotPanics(t, func() { d.Notify(Mention{Recipient: "z@example.com"}) })
	d.Close()
}

func TestDispatcherLogsSinkErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	d := NewDispatcher(zap.New(core), 1, &recordingSink{err: errors.New("down")})
	d.Notify(Mention{Recipient: "x@example.com", CommentID: "c1"})
	d.Close()

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "mention delivery failed", logs.All()[0].Message)
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, LogSink{Log: zap.New(core)}.Deliver(context.Background(), Mention{Recipient: "x@example.com"}))
	assert.Equal(t, 1, logs.FilterField(zap.String("recipient", "x@example.com")).Len())
}

func TestRedisSinkPublishes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	sub := client.Subscribe(ctx, "admin:mentions")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	sink := NewRedisSink(client, "admin:mentions")
	require.NoError(t, sink.Deliver(ctx, Mention{Recipient: "x@example.com", CommentID: "c1", At: time.Unix(0, 0).UTC()}))

	select {
	case msg := <-sub.Channel():
		var m Mention
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &m))
		assert.Equal(t, "c1", m.CommentID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message published")
	}
}

func TestRedisSinkFromURL(t *testing.T) {
	_, err := NewRedisSinkFromURL("not-a-url", "c")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	sink, err := NewRedisSinkFromURL("redis://"+mr.Addr(), "c")
	require.NoError(t, err)
	assert.NoError(t, sink.Close())
}
