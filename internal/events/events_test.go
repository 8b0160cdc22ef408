package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_PublishRunCompleted(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafka(w)

	ev := RunCompleted{RunID: "abc", ConfigVersion: 3, Currency: "USD", RowCount: 2}
	require.NoError(t, p.PublishRunCompleted(context.Background(), ev))
	require.Len(t, w.msgs, 1)

	assert.Equal(t, "run-abc", string(w.msgs[0].Key))
	var got RunCompleted
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, ev, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafka_PublishError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafka(&fakeWriter{err: boom})

	err := p.PublishRunCompleted(context.Background(), RunCompleted{RunID: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "pricing-runs")
	assert.Equal(t, "pricing-runs", w.Topic)
	assert.True(t, w.AllowAutoTopicCreation)
}
