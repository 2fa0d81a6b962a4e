package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
	"todo-project/internal/cache"
	"todo-project/internal/models"
	"todo-project/pkg/logger"
)

// TaskRepo is the persistence contract the handlers need. Satisfied by
// repository.Tasks; faked in tests.
type TaskRepo interface {
	All(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, text string) (models.Task, error)
	SetDone(ctx context.Context, id int64) (models.Task, bool, error)
	Ping(ctx context.Context) error
}

// EventPublisher emits a domain event after a successful write. Best effort:
// errors are logged and swallowed, never surfaced to the HTTP caller.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, ev models.TaskEvent) error
}

// Server is the store's HTTP surface: task CRUD plus liveness/readiness.
type Server struct {
	repo      TaskRepo
	events    EventPublisher
	lists     *cache.ListCache
	listGroup singleflight.Group
}

// NewServer wires the handlers. events and lists may be nil.
func NewServer(repo TaskRepo, events EventPublisher, lists *cache.ListCache) *Server {
	return &Server{repo: repo, events: events, lists: lists}
}

// ListTasks returns all tasks ordered by ascending id, serving cached bytes
// when available and collapsing concurrent misses into one database read.
func (s *Server) ListTasks(c *gin.Context) {
	ctx := c.Request.Context()
	if b, ok := s.lists.GetRaw(ctx); ok {
		c.Data(http.StatusOK, "application/json", b)
		return
	}
	v, err, _ := s.listGroup.Do("todos", func() (interface{}, error) {
		tasks, err := s.repo.All(context.Background())
		if err != nil {
			return nil, err
		}
		return json.Marshal(tasks)
	})
	if err != nil {
		logger.Error(ctx, "Failed to fetch todos", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch todos"})
		return
	}
	b := v.([]byte)
	c.Data(http.StatusOK, "application/json", b)
	s.lists.SetRawAsync(b)
}

// CreateTask validates the body, persists the task, then fires one best-effort
// todo.created event. A publish failure never fails the create.
func (s *Server) CreateTask(c *gin.Context) {
	ctx := c.Request.Context()
	var body struct {
		Text string `json:"text"`
	}
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	// An empty body means an empty task, not malformed JSON.
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
			return
		}
	}
	task, err := s.repo.Create(ctx, body.Text)
	switch {
	case errors.Is(err, models.ErrTextRequired):
		logger.Info(ctx, "todo-create", "outcome", "rejected", "reason", "text_required", "length", len(body.Text))
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrTextRequired.Error()})
		return
	case errors.Is(err, models.ErrTextTooLong):
		logger.Info(ctx, "todo-create", "outcome", "rejected", "reason", "too_long", "length", len(body.Text), "text", body.Text)
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrTextTooLong.Error()})
		return
	case err != nil:
		logger.Error(ctx, "Failed to create todo", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create todo"})
		return
	}
	logger.Info(ctx, "todo-create", "outcome", "created", "id", task.ID, "length", len(task.Text), "text", task.Text)
	s.publish(ctx, models.SubjectCreated, task)
	s.lists.Invalidate(ctx)
	c.JSON(http.StatusCreated, task)
}

// CompleteTask marks a task done. Completing an id that does not exist is a
// silent no-op; completing an already-done task publishes again.
func (s *Server) CompleteTask(c *gin.Context) {
	ctx := c.Request.Context()
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid todo id"})
		return
	}
	task, ok, err := s.repo.SetDone(ctx, id)
	if err != nil {
		logger.Error(ctx, "Failed to mark todo as done", "error", err, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update todo"})
		return
	}
	if ok {
		s.publish(ctx, models.SubjectUpdated, task)
		s.lists.Invalidate(ctx)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health returns 200 if the process is alive. No dependency check.
func (s *Server) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 only if a trivial database round trip succeeds within 2s.
func (s *Server) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.repo.Ping(ctx); err != nil {
		logger.Error(ctx, "Readiness check failed - database not ready", "error", err)
		c.String(http.StatusServiceUnavailable, "Not Ready - Database connection failed")
		return
	}
	c.String(http.StatusOK, "Ready")
}

func (s *Server) publish(ctx context.Context, subject string, t models.Task) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, models.NewTaskEvent(t)); err != nil {
		logger.Error(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
