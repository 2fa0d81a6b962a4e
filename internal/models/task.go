package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTextLength is the longest task text accepted by the store.
const MaxTextLength = 140

var (
	ErrTextRequired = errors.New("text is required")
	ErrTextTooLong  = errors.New("text must be 140 chars or less")
)

// Task is a user-created to-do item. Ids are time-derived (unix milliseconds)
// and unique; done only ever transitions false to true.
type Task struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

// Event subjects, also used as broker topic names.
const (
	SubjectCreated = "todo.created"
	SubjectUpdated = "todo.updated"
)

// TaskEvent is the wire payload published after a task is created or completed.
// The text rides under the "task" key; downstream consumers depend on that name.
type TaskEvent struct {
	ID        int64     `json:"id"`
	Task      string    `json:"task"`
	Done      bool      `json:"done"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTaskEvent builds the event payload for the given task, stamped now.
func NewTaskEvent(t Task) TaskEvent {
	return TaskEvent{
		ID:        t.ID,
		Task:      t.Text,
		Done:      t.Done,
		Timestamp: time.Now().UTC(),
	}
}

// ValidateText trims the given text and checks the store's constraints.
// Returns the trimmed text on success.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextRequired
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return "", ErrTextTooLong
	}
	return text, nil
}
