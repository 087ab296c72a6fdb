// Package http wires the gin router: public auth routes plus the
// JWT-protected document, question and profile surface.
package http

import (
	"github.com/gin-gonic/gin"

	"docqa/internal/transport/http/handler"
	"docqa/internal/transport/http/middleware"
)

type RouterConfig struct {
	JWTSecret string

	Auth      *handler.AuthHandler
	Documents *handler.DocumentHandler
	Query     *handler.QueryHandler
	Students  *handler.StudentHandler
	Status    *handler.StatusHandler
	Health    *handler.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", cfg.Health.Health)

	r.POST("/register/", cfg.Auth.Register)
	r.POST("/auth/token/", cfg.Auth.Token)
	r.POST("/auth/token/refresh/", cfg.Auth.Refresh)

	authed := r.Group("/", middleware.AuthJWT(cfg.JWTSecret))
	{
		authed.POST("/documents/", cfg.Documents.Upload)
		authed.GET("/documents/list/", cfg.Documents.List)
		authed.DELETE("/documents/:id/delete/", cfg.Documents.Delete)

		authed.POST("/ask/", cfg.Query.Ask)
		authed.GET("/history/", cfg.Query.History)

		authed.GET("/profile/", cfg.Students.Profile)
		authed.PUT("/profile/", cfg.Students.UpdateProfile)
		authed.GET("/students/", cfg.Students.List)

		authed.GET("/debug/status/", cfg.Status.Status)
	}

	return r
}
