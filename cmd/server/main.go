package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"docqa/internal/bootstrap"
	transporthttp "docqa/internal/transport/http"
	"docqa/internal/transport/http/handler"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer application.Close()

	gin.SetMode(application.Config.App.GinMode)

	checks := map[string]handler.HealthCheck{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := application.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return application.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(ctx context.Context) error {
			if application.MQConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}

	router := transporthttp.NewRouter(transporthttp.RouterConfig{
		JWTSecret: application.Config.Auth.JWTSecret,
		Auth:      handler.NewAuthHandler(application.Auth),
		Documents: handler.NewDocumentHandler(application.Ingest),
		Query:     handler.NewQueryHandler(application.Query),
		Students:  handler.NewStudentHandler(application.Students),
		Status:    handler.NewStatusHandler(application.Status),
		Health:    handler.NewHealthHandler(application.StartedAt, checks),
	})

	server := &http.Server{
		Addr:    application.Config.HTTPAddr(),
		Handler: router,
	}

	go func() {
		log.Printf("%s listening on %s", application.Config.App.Name, server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown failed: %v", err)
	}
	log.Println("server stopped")
}
