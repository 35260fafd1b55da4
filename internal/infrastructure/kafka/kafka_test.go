package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/event"
	"github.com/mkdev28/Cropp/internal/infrastructure/kafka"
	"github.com/mkdev28/Cropp/pkg/events"
	pkgkafka "github.com/mkdev28/Cropp/pkg/kafka"
	"github.com/mkdev28/Cropp/pkg/testutil"
)

type mockProducer struct {
	topic    string
	messages []pkgkafka.Message
	err      error
}

func (m *mockProducer) Publish(_ context.Context, topic string, messages ...pkgkafka.Message) error {
	m.topic = topic
	m.messages = append(m.messages, messages...)
	return m.err
}

type mockReloader struct {
	ids []uuid.UUID
	err error
}

func (m *mockReloader) Reload(_ context.Context, id uuid.UUID) error {
	m.ids = append(m.ids, id)
	return m.err
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func activatedEvent() event.BundleActivated {
	return event.BundleActivated{
		BundleID:         testutil.TestBundleID2,
		PreviousBundleID: testutil.TestBundleID,
		ActivatedAt:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := kafka.NewPublisher(producer, "risk.events", discardLogger())

	trained := event.BundleTrained{BundleID: testutil.TestBundleID, AUC: 0.91, TrainedAt: time.Now().UTC()}
	require.NoError(t, pub.Publish(context.Background(), trained, activatedEvent()))

	assert.Equal(t, "risk.events", producer.topic)
	require.Len(t, producer.messages, 2)

	msg := producer.messages[0]
	assert.Equal(t, testutil.TestBundleID.String(), string(msg.Key))
	assert.Equal(t, event.EventTypeBundleTrained, msg.Headers[kafka.HeaderEventType])

	var env events.Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, event.EventTypeBundleTrained, env.Type)
	var decoded event.BundleTrained
	require.NoError(t, env.Decode(&decoded))
	assert.InDelta(t, 0.91, decoded.AUC, 1e-12)
}

func TestPublisher_NoEvents(t *testing.T) {
	producer := &mockProducer{err: errors.New("should not be called")}
	pub := kafka.NewPublisher(producer, "risk.events", discardLogger())

	assert.NoError(t, pub.Publish(context.Background()))
	assert.Empty(t, producer.messages)
}

func TestPublisher_ProducerError(t *testing.T) {
	producer := &mockProducer{err: errors.New("broker down")}
	pub := kafka.NewPublisher(producer, "risk.events", discardLogger())

	err := pub.Publish(context.Background(), activatedEvent())
	assert.ErrorContains(t, err, "broker down")
}

func TestActivationListener_RoundTrip(t *testing.T) {
	producer := &mockProducer{}
	pub := kafka.NewPublisher(producer, "risk.events", discardLogger())
	require.NoError(t, pub.Publish(context.Background(), activatedEvent()))

	reloader := &mockReloader{}
	listener := kafka.NewActivationListener(reloader, discardLogger())
	require.NoError(t, listener.Handle(context.Background(), producer.messages[0]))

	assert.Equal(t, []uuid.UUID{testutil.TestBundleID2}, reloader.ids)
}

func TestActivationListener_SkipsOtherEvents(t *testing.T) {
	producer := &mockProducer{}
	pub := kafka.NewPublisher(producer, "risk.events", discardLogger())
	require.NoError(t, pub.Publish(context.Background(), event.BundleTrained{BundleID: testutil.TestBundleID}))

	reloader := &mockReloader{}
	listener := kafka.NewActivationListener(reloader, discardLogger())
	require.NoError(t, listener.Handle(context.Background(), producer.messages[0]))

	msg := producer.messages[0]
	msg.Headers = nil
	require.NoError(t, listener.Handle(context.Background(), msg), "type is read from the envelope without a header")
	assert.Empty(t, reloader.ids)
}

func TestActivationListener_Errors(t *testing.T) {
	listener := kafka.NewActivationListener(&mockReloader{}, discardLogger())
	err := listener.Handle(context.Background(), pkgkafka.Message{Value: []byte("{"), Offset: 12})
	assert.ErrorContains(t, err, "offset 12")

	producer := &mockProducer{}
	require.NoError(t, kafka.NewPublisher(producer, "t", discardLogger()).Publish(context.Background(), activatedEvent()))
	failing := kafka.NewActivationListener(&mockReloader{err: errors.New("not found")}, discardLogger())
	assert.ErrorContains(t, failing.Handle(context.Background(), producer.messages[0]), "not found")
}

func TestPublisher_Integration(t *testing.T) {
	testutil.SkipUnlessIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	kc := testutil.NewKafkaContainer(ctx, t)
	defer kc.Cleanup(t)

	producer, err := pkgkafka.NewProducer(kc.Config(""))
	require.NoError(t, err)
	defer producer.Close()
	require.NoError(t, kafka.NewPublisher(producer, "risk.events", discardLogger()).Publish(ctx, activatedEvent()))

	reloader := &mockReloader{}
	listener := kafka.NewActivationListener(reloader, discardLogger())
	received := make(chan struct{})
	var once sync.Once
	consumer, err := pkgkafka.NewConsumer(kc.Config(""), "risk.events", func(ctx context.Context, msg pkgkafka.Message) error {
		err := listener.Handle(ctx, msg)
		once.Do(func() { close(received) })
		return err
	}, discardLogger())
	require.NoError(t, err)
	defer consumer.Close()

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = consumer.Start(consumeCtx) }()

	select {
	case <-received:
	case <-ctx.Done():
		t.Fatal("activation event not consumed")
	}
	assert.Equal(t, []uuid.UUID{testutil.TestBundleID2}, reloader.ids)
}
