package store

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"todo-project/internal/middleware"
)

// Router builds the store's gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	router.GET("/healthz", s.Health)
	router.GET("/readyz", s.Ready)

	router.GET("/todos", s.ListTasks)
	router.POST("/todos", s.CreateTask)
	router.PUT("/todos/:id", s.CompleteTask)

	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found\n")
	})

	return router
}
