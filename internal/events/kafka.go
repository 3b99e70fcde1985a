// AngelaMos | 2026
// kafka.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/finddetectives/internal/config"
)

const schemaVersion = "1.0"

// KafkaPublisher sends events through a sarama async producer. Delivery
// errors are drained and logged by a background goroutine.
type KafkaPublisher struct {
	producer    sarama.AsyncProducer
	topicPrefix string
	service     string
	environment string
	logger      *slog.Logger
	done        chan struct{}
}

func NewKafkaPublisher(
	kafkaCfg config.KafkaConfig,
	appCfg config.AppConfig,
	logger *slog.Logger,
) (*KafkaPublisher, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Version = sarama.V3_5_0_0
	saramaCfg.Producer.RequiredAcks = sarama.WaitForLocal
	saramaCfg.Producer.Compression = sarama.CompressionSnappy
	saramaCfg.Producer.Flush.Frequency = 100 * time.Millisecond
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = false
	saramaCfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(kafkaCfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return newKafkaPublisher(producer, kafkaCfg.TopicPrefix, appCfg, logger), nil
}

func newKafkaPublisher(
	producer sarama.AsyncProducer,
	topicPrefix string,
	appCfg config.AppConfig,
	logger *slog.Logger,
) *KafkaPublisher {
	p := &KafkaPublisher{
		producer:    producer,
		topicPrefix: topicPrefix,
		service:     appCfg.Name,
		environment: appCfg.Environment,
		logger:      logger,
		done:        make(chan struct{}),
	}

	go p.drainErrors()

	return p
}

func (p *KafkaPublisher) drainErrors() {
	for {
		select {
		case perr, ok := <-p.producer.Errors():
			if !ok {
				return
			}
			p.logger.Error("kafka delivery failed",
				"topic", perr.Msg.Topic,
				"error", perr.Err,
			)
		case <-p.done:
			return
		}
	}
}

type envelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	ActorID   string            `json:"actor_id,omitempty"`
	SubjectID string            `json:"subject_id"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	metadata := map[string]string{
		"service":     p.service,
		"environment": p.environment,
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	body, err := json.Marshal(envelope{
		EventID:   event.ID,
		EventType: event.Type,
		ActorID:   event.ActorID,
		SubjectID: event.SubjectID,
		Timestamp: event.Timestamp.UTC(),
		Version:   schemaVersion,
		Payload:   event.Payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.TopicName(event.Type),
		Key:   sarama.StringEncoder(event.SubjectID),
		Value: sarama.ByteEncoder(body),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TopicName prefixes eventType with the configured topic prefix.
func (p *KafkaPublisher) TopicName(eventType string) string {
	if p.topicPrefix == "" {
		return eventType
	}

	prefix := p.topicPrefix + "."
	if strings.HasPrefix(eventType, prefix) {
		return eventType
	}

	return prefix + eventType
}

func (p *KafkaPublisher) Close() error {
	close(p.done)

	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}

	return nil
}
