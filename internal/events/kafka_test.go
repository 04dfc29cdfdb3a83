package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

// fakeWriter records messages written.
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

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw, nil)
	ctx := common.WithRequestID(context.Background(), "req-1")

	err := p.Publish(ctx, "LD-9", NewEvent(LoadCreated, map[string]string{"loadId": "LD-9"}))
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, "LD-9", string(msg.Key))
	assert.Equal(t, LoadCreated, header(msg, "event-type"))
	assert.Equal(t, "req-1", header(msg, "request-id"))

	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, LoadCreated, got.Type)
	assert.Equal(t, "LD-9", got.Data["loadId"])

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestKafkaPublisher_Errors(t *testing.T) {
	fw := &fakeWriter{err: errors.New("leader not available")}
	p := NewKafkaPublisherWithWriter(fw, nil)
	assert.Error(t, p.Publish(context.Background(), "k", map[string]int{"a": 1}))

	p = NewKafkaPublisherWithWriter(&fakeWriter{}, nil)
	assert.Error(t, p.Publish(context.Background(), "k", make(chan int)))
}

func TestNew_WithoutBrokerIsNop(t *testing.T) {
	p := New(common.KafkaConfig{Topic: "fleet-events"}, nil)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), "k", "v"))

	p = New(common.KafkaConfig{Broker: "localhost:9092", Topic: "fleet-events"}, nil)
	assert.IsType(t, &KafkaPublisher{}, p)
}
