package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	topic string
	msgs  []kafka.Message
	err   error
}

func (f *fakeWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func TestKafkaPublisherKeysByStudent(t *testing.T) {
	w := &fakeWriter{}
	pub := NewKafkaPublisher(w, "participation-events")

	ev := ParticipationUpdated("6612345678", "A1", "confirmed")
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Equal(t, "participation-events", w.topic)
	require.Len(t, w.msgs, 1)
	require.Equal(t, "6612345678", string(w.msgs[0].Key))
	require.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	require.Equal(t, TypeParticipationUpdated, string(w.msgs[0].Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	require.Equal(t, ev.ID, decoded.ID)
	require.Equal(t, "A1", decoded.ActivityID)
}

func TestKafkaPublisherWrapsWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	err := NewKafkaPublisher(w, "t").Publish(context.Background(), QuizGraded("s1", "skill001", 80, true))
	require.ErrorIs(t, err, w.err)
}

func TestFanoutJoinsErrors(t *testing.T) {
	var delivered []string
	ok := PublisherFunc(func(_ context.Context, ev Event) error {
		delivered = append(delivered, ev.Type)
		return nil
	})
	boom := errors.New("boom")
	failing := PublisherFunc(func(context.Context, Event) error { return boom })

	err := Fanout{ok, nil, failing, ok}.Publish(context.Background(), ParticipationUpdated("s1", "A1", "survey"))
	require.ErrorIs(t, err, boom)
	require.Len(t, delivered, 2)

	require.NoError(t, Fanout{ok, Discard}.Publish(context.Background(), ParticipationUpdated("s1", "A1", "survey")))
}

func TestKafkaProducerReusesWriters(t *testing.T) {
	p := NewKafkaProducer([]string{"localhost:9092"})
	first := p.writerFor("a")
	require.Same(t, first, p.writerFor("a"))
	require.NotSame(t, first, p.writerFor("b"))
	require.NoError(t, p.Close())
	require.Empty(t, p.writers)
}
