package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"todo-project/internal/config"
	"todo-project/internal/models"
	"todo-project/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// GroupID is the consumer group shared by all notifier replicas. The broker
// delivers each event to exactly one member, so replicas load-balance instead
// of duplicating outbound notifications.
const GroupID = "broadcasters"

// Subjects lists the topics the store publishes and the notifier consumes.
var Subjects = []string{models.SubjectCreated, models.SubjectUpdated}

// EnsureTopics creates the event topics with configured partitions (idempotent).
// Call at startup; if it fails (e.g. no broker or topics exist), app still runs.
func EnsureTopics(ctx context.Context) {
	cfg := config.Get()
	if len(cfg.KafkaBrokers) == 0 {
		return
	}
	conn, err := kafka.Dial("tcp", cfg.KafkaBrokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	topics := make([]kafka.TopicConfig, 0, len(Subjects))
	for _, subject := range Subjects {
		topics = append(topics, kafka.TopicConfig{
			Topic:             subject,
			NumPartitions:     cfg.KafkaPartitions,
			ReplicationFactor: 1,
		})
	}
	if err := ctrlConn.CreateTopics(topics...); err != nil {
		logger.Debug(ctx, "Kafka create topics failed (topics may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topics ensured", "topics", Subjects, "partitions", cfg.KafkaPartitions)
}

// Publisher writes task events to the broker. A nil Publisher is valid and
// publishes nothing, so the store runs without a broker configured.
type Publisher struct {
	w *kafka.Writer
}

// NewPublisher returns an async publisher for the given brokers, or nil when
// none are configured. Writes never block the caller; delivery failures are
// logged through the completion hook and dropped.
func NewPublisher(ctx context.Context, brokers []string) *Publisher {
	if len(brokers) == 0 {
		logger.Info(ctx, "Event publishing disabled (no Kafka brokers)")
		return nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    1,
		BatchTimeout: 0,
		Async:        true,
		RequiredAcks: kafka.RequireOne,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error(context.Background(), "Event publish failed", "error", err)
			}
		},
	}
	logger.Info(ctx, "Kafka producer initialized", "brokers", brokers)
	return &Publisher{w: w}
}

// Publish sends one task event on the given subject. Best effort: an error
// here (or later, via the async completion hook) is the caller's to log and
// swallow, never to surface.
func (p *Publisher) Publish(ctx context.Context, subject string, ev models.TaskEvent) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.w.Close()
}
