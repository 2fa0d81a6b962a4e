package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr error
	}{
		{name: "plain text", in: "buy milk", want: "buy milk"},
		{name: "trims whitespace", in: "  buy milk \n", want: "buy milk"},
		{name: "empty", in: "", wantErr: ErrTextRequired},
		{name: "whitespace only", in: "   \t ", wantErr: ErrTextRequired},
		{name: "exactly 140 chars", in: strings.Repeat("a", 140), want: strings.Repeat("a", 140)},
		{name: "141 chars", in: strings.Repeat("a", 141), wantErr: ErrTextTooLong},
		{name: "multibyte runes count as one char", in: strings.Repeat("ä", 140), want: strings.Repeat("ä", 140)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateText(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Consumers outside this repo read the event off the wire, so the field names
// must not drift. In particular the text rides under "task", not "text".
func TestTaskEventWireFormat(t *testing.T) {
	ev := TaskEvent{
		ID:        1700000000000,
		Task:      "buy milk",
		Done:      false,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "task")
	assert.Contains(t, fields, "done")
	assert.Contains(t, fields, "timestamp")
	assert.NotContains(t, fields, "text")
	assert.JSONEq(t, `{"id":1700000000000,"task":"buy milk","done":false,"timestamp":"2024-01-02T03:04:05Z"}`, string(raw))
}

func TestNewTaskEvent(t *testing.T) {
	task := Task{ID: 42, Text: "water plants", Done: true}
	before := time.Now().UTC()
	ev := NewTaskEvent(task)
	after := time.Now().UTC()

	assert.Equal(t, task.ID, ev.ID)
	assert.Equal(t, task.Text, ev.Task)
	assert.Equal(t, task.Done, ev.Done)
	assert.False(t, ev.Timestamp.Before(before))
	assert.False(t, ev.Timestamp.After(after))
}
