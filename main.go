package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"relay-service/internal/auth"
	"relay-service/internal/config"
	"relay-service/internal/db"
	"relay-service/internal/handlers"
	"relay-service/internal/middleware"
	"relay-service/internal/observability"
	"relay-service/internal/rabbitmq"
	"relay-service/internal/redis"
	"relay-service/internal/relay"
	"relay-service/internal/repositories"
	"relay-service/internal/telemetry"
	"relay-service/internal/validation"
	"relay-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), "relay-service", cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	redisClient, err := redis.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	if eventsPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
		log.Printf("connection events disabled: %v", err)
	} else {
		observability.SetPublisher(eventsPublisher)
		defer eventsPublisher.Close()
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode: %s", rabbitmq.PublisherMode(auditPublisher))
	audit := telemetry.NewAuditEmitter(auditPublisher, "relay_events.audit", "relay-service", cfg.Environment)

	userRepo := repositories.NewUserRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	receiptRepo := repositories.NewReceiptRepo(database)
	presenceRepo := repositories.NewPresenceRepo(redisClient)

	registry := ws.NewRegistry()
	hub := ws.NewHub()
	gate := validation.NewGate()

	service := relay.NewService(gate, userRepo, groupRepo, messageRepo, receiptRepo, presenceRepo, registry, hub, audit)

	verifier := auth.NewVerifier([]byte(cfg.JWTSecret))
	gateway := ws.NewGateway(service, verifier)
	historyHandler := handlers.NewHistoryHandler(userRepo, groupRepo, messageRepo)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("relay-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/ws", gateway.Handle)

	router.GET("/history/conversations", authMiddleware, historyHandler.ListConversations)
	router.GET("/history/direct", authMiddleware, historyHandler.GetDirectHistory)
	router.GET("/history/group", authMiddleware, historyHandler.GetGroupHistory)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
