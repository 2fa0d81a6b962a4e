package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"todo-project/internal/models"
	"todo-project/internal/queue"
	"todo-project/pkg/logger"
)

// Notifier consumes task events in a load-balanced consumer group and forwards
// each one to an external webhook. Delivery is at-most-once: every message is
// committed whether or not the webhook call succeeded.
type Notifier struct {
	brokers    []string
	webhookURL string
	client     *http.Client
}

// New returns a notifier reading from the given brokers. An empty webhookURL
// enables staging mode: events are logged instead of delivered.
func New(brokers []string, webhookURL string) *Notifier {
	return &Notifier{
		brokers:    brokers,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Run consumes both event subjects until ctx is cancelled. One reader per
// subject; all replicas share the same group, so the broker delivers each
// event to exactly one of them.
func (n *Notifier) Run(ctx context.Context) {
	if len(n.brokers) == 0 {
		logger.Info(ctx, "Notifier disabled (no Kafka brokers)")
		return
	}
	if n.webhookURL == "" {
		logger.Info(ctx, "DISCORD_WEBHOOK_URL not set - notifier will only log messages")
	}
	var wg sync.WaitGroup
	for _, subject := range queue.Subjects {
		wg.Add(1)
		go func(subject string) {
			defer wg.Done()
			n.consume(ctx, subject)
		}(subject)
	}
	wg.Wait()
}

func (n *Notifier) consume(ctx context.Context, subject string) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  n.brokers,
		Topic:    subject,
		GroupID:  queue.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	logger.Info(ctx, "Subscribed", "subject", subject, "group", queue.GroupID)
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error(ctx, "Notifier fetch failed", "error", err, "subject", subject)
			continue
		}
		if err := n.handle(ctx, subject, msg.Value); err != nil {
			logger.Error(ctx, "Notifier handle failed", "error", err, "subject", subject, "payload", string(msg.Value))
		}
		// Commit regardless of the outcome: best-effort, no retry, no
		// dead-letter queue. Loss on transient failure is accepted.
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Notifier commit failed", "error", err, "subject", subject)
		}
	}
}

// handle decodes one event and performs a single delivery attempt.
func (n *Notifier) handle(ctx context.Context, subject string, payload []byte) error {
	var ev models.TaskEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	logger.Info(ctx, "Received event", "subject", subject, "id", ev.ID, "task", ev.Task, "done", ev.Done)

	if n.webhookURL == "" {
		logger.Info(ctx, "[STAGING] Would send to Discord", "task", orNA(ev.Task), "done", ev.Done)
		return nil
	}
	msg := buildMessage(subject, ev, time.Now().UTC())
	if err := n.deliver(ctx, msg); err != nil {
		return err
	}
	logger.Info(ctx, "Message sent to Discord", "subject", subject, "id", ev.ID)
	return nil
}
