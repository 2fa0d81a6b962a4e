package gateway

import (
	"bytes"
	_ "embed"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"todo-project/internal/imagecache"
	"todo-project/pkg/logger"
)

//go:embed index.html
var indexHTML []byte

// Server is the public HTTP surface: UI, task proxy, image cache, probes.
// It holds no task data; every task request is a pure pass-through to the
// store, which stays the single point of validation.
type Server struct {
	backendURL string
	client     *http.Client
	probe      *http.Client
	images     *imagecache.Cache
}

// NewServer returns a gateway proxying task calls to backendURL.
func NewServer(backendURL string, images *imagecache.Cache) *Server {
	return &Server{
		backendURL: backendURL,
		client:     &http.Client{},
		probe:      &http.Client{Timeout: 2 * time.Second},
		images:     images,
	}
}

// Index serves the UI document.
func (s *Server) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// ListTodos proxies GET /todos to the store.
func (s *Server) ListTodos(c *gin.Context) {
	s.forward(c, http.MethodGet, "/todos", nil, "")
}

// CreateTodo reads the full request body and forwards it unmodified. A
// malformed body is the store's concern, not the gateway's.
func (s *Server) CreateTodo(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to read request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	contentType := c.GetHeader("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	s.forward(c, http.MethodPost, "/todos", body, contentType)
}

// CompleteTodo forwards a completion request for the id in the path.
func (s *Server) CompleteTodo(c *gin.Context) {
	s.forward(c, http.MethodPut, "/todos/"+c.Param("id"), nil, "")
}

// Image serves the cached external image, refreshing first if stale.
func (s *Server) Image(c *gin.Context) {
	ctx := c.Request.Context()
	data, err := s.images.Get(ctx)
	if err != nil {
		logger.Error(ctx, "Error serving image", "error", err)
		c.String(http.StatusInternalServerError, "Failed to load image\n")
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

// Health returns 200 if the process is alive. No dependency check; liveness
// and readiness deliberately share no logic.
func (s *Server) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Ready returns 200 only if the store answers its own readiness probe within
// 2s, so readiness cascades gateway -> store -> database.
func (s *Server) Ready(c *gin.Context) {
	ctx := c.Request.Context()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.backendURL+"/readyz", nil)
	if err != nil {
		c.String(http.StatusServiceUnavailable, "Not Ready - Backend not available")
		return
	}
	resp, err := s.probe.Do(req)
	if err != nil {
		logger.Error(ctx, "Readiness check failed - backend not reachable", "error", err)
		c.String(http.StatusServiceUnavailable, "Not Ready - Cannot reach backend")
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.String(http.StatusServiceUnavailable, "Not Ready - Backend not available")
		return
	}
	c.String(http.StatusOK, "Ready")
}

// forward relays one request to the store and copies status, Content-Type and
// body back verbatim. Transport failure is a 502 with the standard envelope.
func (s *Server) forward(c *gin.Context, method, path string, body []byte, contentType string) {
	ctx := c.Request.Context()
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.backendURL+path, reqBody)
	if err != nil {
		logger.Error(ctx, "Failed to build backend request", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach backend"})
		return
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error(ctx, "Failed to reach backend", "error", err, "path", path)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach backend"})
		return
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error(ctx, "Failed to read backend response", "error", err, "path", path)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach backend"})
		return
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	c.Data(resp.StatusCode, ct, data)
}
