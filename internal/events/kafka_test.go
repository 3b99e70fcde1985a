// AngelaMos | 2026
// kafka_test.go

package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/finddetectives/internal/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() {}

func (f *fakeAsyncProducer) Close() error { return nil }

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(
	offsets map[string][]*sarama.PartitionOffsetMetadata,
	groupID string,
) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(
	msg *sarama.ConsumerMessage,
	groupID string,
	metadata *string,
) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisherEnvelope(t *testing.T) {
	producer := newFakeAsyncProducer()
	pub := newKafkaPublisher(producer, "finddetectives", config.AppConfig{
		Name:        "finddetectives-api",
		Environment: "test",
	}, discardLogger())
	defer pub.Close() //nolint:errcheck // test cleanup

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	err := pub.Publish(context.Background(), Event{
		ID:        "evt-1",
		Type:      ClaimApproved,
		ActorID:   "admin-1",
		SubjectID: "claim-1",
		Timestamp: at,
		Payload:   map[string]any{"was_new_user": true},
	})
	require.NoError(t, err)

	msg := <-producer.input
	assert.Equal(t, "finddetectives.claim.approved", msg.Topic)

	key, err := msg.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "claim-1", string(key))

	body, err := msg.Value.Encode()
	require.NoError(t, err)

	var env map[string]any
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "evt-1", env["event_id"])
	assert.Equal(t, ClaimApproved, env["event_type"])
	assert.Equal(t, at.Format(time.RFC3339Nano), env["timestamp"])
	assert.Equal(t, map[string]any{"was_new_user": true}, env["payload"])

	meta, ok := env["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "finddetectives-api", meta["service"])
}

func TestKafkaPublisherRespectsContext(t *testing.T) {
	producer := &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage),
		errors: make(chan *sarama.ProducerError),
	}
	pub := newKafkaPublisher(producer, "", config.AppConfig{}, discardLogger())
	defer pub.Close() //nolint:errcheck // test cleanup

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pub.Publish(ctx, Event{Type: ApplicationApproved, SubjectID: "a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTopicName(t *testing.T) {
	pub := &KafkaPublisher{topicPrefix: "fd"}
	assert.Equal(t, "fd.claim.approved", pub.TopicName(ClaimApproved))
	assert.Equal(t, "fd.claim.approved", pub.TopicName("fd.claim.approved"))

	pub.topicPrefix = ""
	assert.Equal(t, ClaimApproved, pub.TopicName(ClaimApproved))
}
