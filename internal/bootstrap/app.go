// Package bootstrap builds the application object graph: config, database,
// cache, broker, model client, services and background workers.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	redisv9 "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docqa/internal/ai"
	"docqa/internal/app"
	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/model"
	"docqa/internal/pkg/pdfextract"
	"docqa/internal/pkg/splitter"
	"docqa/internal/platform/mysql"
	"docqa/internal/platform/rabbitmq"
	"docqa/internal/platform/redis"
	"docqa/internal/repository"
	"docqa/internal/worker"
)

type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redisv9.Client
	MQConn    *amqp.Connection
	StartedAt time.Time

	Auth     *app.AuthService
	Students *app.StudentService
	Ingest   *app.IngestService
	Query    *app.QueryService
	Status   *app.StatusService

	auditWorker *worker.AuditWorker
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	db, err := mysql.New(ctx, cfg.MySQL)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Student{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.QueryHistory{},
		&model.AuditEvent{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmq.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AuditEventQueue)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	chunkRepo := repository.NewChunkRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	client := ai.NewClient(ai.Config{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		Model:          cfg.LLM.Model,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
		Temperature:    cfg.LLM.Temperature,
	})
	answerer := ai.NewAnswerer(client, cfg.Retrieval.MaxContextChars)
	indexManager := index.NewManager(cfg.Retrieval.IndexDir, client)

	publisher := rabbitmq.NewAuditPublisher(mqConn, cfg.RabbitMQ.AuditEventQueue)
	historyCache := cache.NewHistoryCache(redisClient, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)

	auditWorker := worker.NewAuditWorker(mqConn, auditRepo, cfg.RabbitMQ.AuditEventQueue)
	if err := auditWorker.Start(ctx); err != nil {
		return nil, err
	}

	jwtExpiration := time.Duration(cfg.Auth.JWTExpireMinute) * time.Minute

	return &App{
		Config:    cfg,
		DB:        db,
		Redis:     redisClient,
		MQConn:    mqConn,
		StartedAt: time.Now(),

		Auth:     app.NewAuthService(userRepo, studentRepo, cfg.Auth.JWTSecret, jwtExpiration),
		Students: app.NewStudentService(studentRepo),
		Ingest: app.NewIngestService(
			docRepo, chunkRepo,
			pdfextract.Extractor{},
			splitter.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap),
			indexManager, client, publisher,
			cfg.Storage.UploadDir, cfg.MaxUploadBytes(),
		),
		Query: app.NewQueryService(
			docRepo, historyRepo,
			client, indexManager, answerer, client,
			historyCache, publisher,
			cfg.Retrieval.TopK,
		),
		Status: app.NewStatusService(docRepo, chunkRepo, historyRepo, auditRepo, indexManager, client),

		auditWorker: auditWorker,
	}, nil
}

func (a *App) Close() {
	if a.auditWorker != nil {
		a.auditWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			log.Printf("close rabbitmq connection failed: %v", err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Printf("close redis client failed: %v", err)
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Printf("close mysql failed: %v", err)
			}
		}
	}
}
