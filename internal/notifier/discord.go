package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"todo-project/internal/models"
)

// Embed colors: green for created, yellow for updated.
const (
	colorCreated = 65280
	colorUpdated = 16776960
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Timestamp   string       `json:"timestamp"`
}

type webhookMessage struct {
	Embeds []embed `json:"embeds"`
}

// buildMessage renders one event as a single-embed Discord webhook message.
func buildMessage(subject string, ev models.TaskEvent, now time.Time) webhookMessage {
	title := "Todo 📝 Updated"
	color := colorUpdated
	if subject == models.SubjectCreated {
		title = "Todo ✅ Created"
		color = colorCreated
	}
	status := "⏳ Pending"
	if ev.Done {
		status = "✅ Done"
	}
	return webhookMessage{
		Embeds: []embed{{
			Title:       title,
			Description: orNA(ev.Task),
			Color:       color,
			Fields: []embedField{
				{Name: "Task", Value: orNA(ev.Task), Inline: true},
				{Name: "Status", Value: status, Inline: true},
			},
			Timestamp: now.Format(time.RFC3339),
		}},
	}
}

// deliver posts the message to the configured webhook. Single attempt.
func (n *Notifier) deliver(ctx context.Context, msg webhookMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
