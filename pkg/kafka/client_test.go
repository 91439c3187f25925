package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nnews-go/pkg/events"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		return kafka.Message{}, context.Canceled
	}
	m := r.queue[0]
	r.queue = r.queue[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeCounter struct {
	counts map[string]int64
	err    error
}

func (c *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.counts[key]++
	return c.counts[key], nil
}

func (c *fakeCounter) Reset(_ context.Context, key string) error {
	delete(c.counts, key)
	return nil
}

type fakeHandler struct {
	failures int
	handled  []events.ArticleEvent
}

func (h *fakeHandler) Handle(_ context.Context, e events.ArticleEvent) error {
	h.handled = append(h.handled, e)
	if h.failures > 0 {
		h.failures--
		return errors.New("index unavailable")
	}
	return nil
}

func message(t *testing.T, offset int64, e events.ArticleEvent) kafka.Message {
	t.Helper()
	value, err := json.Marshal(e)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Key: []byte(e.Key()), Value: value}
}

func TestProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	require.NoError(t, p.Publish(context.Background(), events.New(events.ArticleCreated, 12, 1)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "article-12", string(w.msgs[0].Key))

	var got events.ArticleEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, events.ArticleCreated, got.Type)
	assert.Equal(t, int64(12), got.ArticleID)
}

func TestConsumerCommitsAfterSuccess(t *testing.T) {
	retryBackoff = 0
	reader := &fakeReader{queue: []kafka.Message{
		message(t, 1, events.New(events.ArticlePublished, 1, 1)),
		{Offset: 2, Value: []byte("not json")},
	}}
	handler := &fakeHandler{failures: 1}
	counter := &fakeCounter{counts: map[string]int64{}}
	c := &Consumer{reader: reader, attempts: counter, handler: handler}

	require.NoError(t, c.Run(context.Background()))

	assert.Len(t, handler.handled, 2)
	require.Len(t, reader.committed, 2)
	assert.Equal(t, int64(1), reader.committed[0].Offset)
	assert.Equal(t, int64(2), reader.committed[1].Offset)
	assert.Empty(t, counter.counts)
	assert.True(t, reader.closed)
}

func TestConsumerGivesUpAfterMaxAttempts(t *testing.T) {
	retryBackoff = 0
	reader := &fakeReader{queue: []kafka.Message{message(t, 5, events.New(events.ArticleUpdated, 3, 0))}}
	handler := &fakeHandler{failures: 10}
	c := &Consumer{reader: reader, attempts: &fakeCounter{counts: map[string]int64{}}, handler: handler}

	require.NoError(t, c.Run(context.Background()))

	assert.Len(t, handler.handled, maxAttempts)
	require.Len(t, reader.committed, 1)
}

func TestConsumerStopsWhenCounterFails(t *testing.T) {
	retryBackoff = 0
	reader := &fakeReader{queue: []kafka.Message{
		message(t, 5, events.New(events.ArticleUpdated, 3, 0)),
		message(t, 6, events.New(events.ArticleUpdated, 4, 0)),
	}}
	handler := &fakeHandler{failures: 1}
	c := &Consumer{reader: reader, attempts: &fakeCounter{err: errors.New("redis down")}, handler: handler}

	err := c.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	// offset 6 不能被提交，否则 offset 5 会被一并确认
	assert.Len(t, handler.handled, 1)
	assert.Empty(t, reader.committed)
	assert.Len(t, reader.queue, 1)
	assert.True(t, reader.closed)
}

func TestBrokerList(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, brokerList(" a:9092, ,b:9092"))
}
