package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-project/internal/models"
)

type fakeRepo struct {
	tasks    []models.Task
	nextID   int64
	failWith error
	pingErr  error
}

func (f *fakeRepo) All(ctx context.Context) ([]models.Task, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := make([]models.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeRepo) Create(ctx context.Context, text string) (models.Task, error) {
	text, err := models.ValidateText(text)
	if err != nil {
		return models.Task{}, err
	}
	if f.failWith != nil {
		return models.Task{}, f.failWith
	}
	f.nextID++
	t := models.Task{ID: f.nextID, Text: text}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeRepo) SetDone(ctx context.Context, id int64) (models.Task, bool, error) {
	if f.failWith != nil {
		return models.Task{}, false, f.failWith
	}
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Done = true
			return f.tasks[i], true, nil
		}
	}
	return models.Task{}, false, nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return f.pingErr }

type recordedEvent struct {
	subject string
	event   models.TaskEvent
}

type fakePublisher struct {
	published []recordedEvent
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, ev models.TaskEvent) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, recordedEvent{subject: subject, event: ev})
	return nil
}

func newTestServer(repo TaskRepo, events EventPublisher) *httptest.Server {
	return httptest.NewServer(NewServer(repo, events, nil).Router())
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestListTasksOrdered(t *testing.T) {
	repo := &fakeRepo{tasks: []models.Task{
		{ID: 1, Text: "first"},
		{ID: 2, Text: "second", Done: true},
	}}
	srv := newTestServer(repo, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/todos", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var tasks []models.Task
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(1), tasks[0].ID)
	assert.Equal(t, int64(2), tasks[1].ID)
	assert.True(t, tasks[1].Done)
}

func TestListTasksStorageFailure(t *testing.T) {
	repo := &fakeRepo{failWith: errors.New("connection refused")}
	srv := newTestServer(repo, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/todos", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to fetch todos"}`, string(body))
}

func TestCreateTask(t *testing.T) {
	repo := &fakeRepo{}
	events := &fakePublisher{}
	srv := newTestServer(repo, events)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/todos", `{"text":"buy milk"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var task models.Task
	require.NoError(t, json.Unmarshal(body, &task))
	assert.Equal(t, "buy milk", task.Text)
	assert.False(t, task.Done)
	assert.NotZero(t, task.ID)

	require.Len(t, events.published, 1)
	assert.Equal(t, models.SubjectCreated, events.published[0].subject)
	assert.Equal(t, "buy milk", events.published[0].event.Task)
	assert.False(t, events.published[0].event.Done)

	// The created task is visible in a subsequent list with identical fields.
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/todos", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(body, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, task, tasks[0])
}

func TestCreateTaskValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantBody string
	}{
		{name: "empty text", body: `{"text":""}`, wantBody: `{"error":"text is required"}`},
		{name: "whitespace text", body: `{"text":"   "}`, wantBody: `{"error":"text is required"}`},
		{name: "too long", body: `{"text":"` + strings.Repeat("a", 141) + `"}`, wantBody: `{"error":"text must be 140 chars or less"}`},
		{name: "malformed json", body: `{"text":`, wantBody: `{"error":"invalid JSON"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			events := &fakePublisher{}
			srv := newTestServer(repo, events)
			defer srv.Close()

			resp, body := doJSON(t, http.MethodPost, srv.URL+"/todos", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.JSONEq(t, tt.wantBody, string(body))
			assert.Empty(t, repo.tasks, "no row may be persisted")
			assert.Empty(t, events.published, "no event may be published")
		})
	}
}

func TestCreateTaskPublishFailureSwallowed(t *testing.T) {
	repo := &fakeRepo{}
	events := &fakePublisher{err: errors.New("broker down")}
	srv := newTestServer(repo, events)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/todos", `{"text":"buy milk"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, repo.tasks, 1)
}

func TestCreateTaskWithoutPublisher(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, nil)
	defer srv.Close()

	resp, _ := doJSON(t, http.MethodPost, srv.URL+"/todos", `{"text":"buy milk"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCompleteTask(t *testing.T) {
	repo := &fakeRepo{tasks: []models.Task{{ID: 7, Text: "buy milk"}}}
	events := &fakePublisher{}
	srv := newTestServer(repo, events)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/todos/7", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))

	require.Len(t, events.published, 1)
	assert.Equal(t, models.SubjectUpdated, events.published[0].subject)
	assert.True(t, events.published[0].event.Done)
	assert.Equal(t, "buy milk", events.published[0].event.Task)
}

// Completing twice succeeds both times and publishes each time. Pinned
// behavior: the second completion is not deduplicated.
func TestCompleteTaskIdempotent(t *testing.T) {
	repo := &fakeRepo{tasks: []models.Task{{ID: 7, Text: "buy milk"}}}
	events := &fakePublisher{}
	srv := newTestServer(repo, events)
	defer srv.Close()

	for i := 0; i < 2; i++ {
		resp, body := doJSON(t, http.MethodPut, srv.URL+"/todos/7", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"success":true}`, string(body))
	}
	assert.True(t, repo.tasks[0].Done)
	require.Len(t, events.published, 2)
	for _, rec := range events.published {
		assert.Equal(t, models.SubjectUpdated, rec.subject)
		assert.True(t, rec.event.Done)
	}
}

// Completing a nonexistent id is a silent no-op: 200, no event.
func TestCompleteTaskMissingID(t *testing.T) {
	repo := &fakeRepo{}
	events := &fakePublisher{}
	srv := newTestServer(repo, events)
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/todos/999", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(body))
	assert.Empty(t, events.published)
}

func TestCompleteTaskInvalidID(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/todos/not-a-number", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid todo id"}`, string(body))
}

func TestCompleteTaskStorageFailure(t *testing.T) {
	repo := &fakeRepo{failWith: errors.New("connection refused")}
	srv := newTestServer(repo, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/todos/7", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Failed to update todo"}`, string(body))
}

func TestHealthAndReady(t *testing.T) {
	repo := &fakeRepo{}
	srv := newTestServer(repo, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/readyz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ready", string(body))
}

func TestReadyDatabaseDown(t *testing.T) {
	repo := &fakeRepo{pingErr: errors.New("connection refused")}
	srv := newTestServer(repo, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "Not Ready - Database connection failed", string(body))
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(&fakeRepo{}, &fakePublisher{})
	defer srv.Close()

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not Found\n", string(body))
}
