package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"todo-project/internal/middleware"
)

// Router builds the gateway's gin engine.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	router.GET("/healthz", s.Health)
	router.GET("/readyz", s.Ready)

	router.GET("/", s.Index)
	router.GET("/image", s.Image)
	router.GET("/todos", s.ListTodos)
	router.POST("/todos", s.CreateTodo)
	router.PUT("/todos/:id", s.CompleteTodo)

	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "Not Found\n")
	})

	return router
}
