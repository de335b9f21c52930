package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"academy-chat/internal/auth"
	"academy-chat/internal/config"
	"academy-chat/internal/db"
	"academy-chat/internal/delivery"
	"academy-chat/internal/handlers"
	"academy-chat/internal/middleware"
	"academy-chat/internal/notify"
	"academy-chat/internal/observability"
	"academy-chat/internal/ratelimit"
	"academy-chat/internal/relay"
	"academy-chat/internal/repositories"
	"academy-chat/internal/storage"
	"academy-chat/internal/stream"
	"academy-chat/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg.OTLPAddr, cfg.Environment)
	if err != nil {
		log.Fatalf("init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	messageRepo := repositories.NewMessageRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	directRepo := repositories.NewDirectMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	userRepo := repositories.NewUserRepo(database)

	verifier := auth.NewVerifier(cfg.SigningKey)

	stop := make(chan struct{})
	defer close(stop)

	limiter := ratelimit.New()
	go limiter.Run(time.Minute, stop)

	registry := stream.NewRegistry(cfg.HeartbeatInterval, cfg.HeartbeatMisses)
	go registry.Run(stop)

	hub := ws.NewHub()

	publisher := relay.NewPublisher(cfg.AMQPURL, cfg.Exchange)
	defer publisher.Close()
	log.Printf("relay publisher mode=%s", relay.PublisherMode(publisher))

	provider := notify.NewHTTPProvider(cfg.PushURL)
	targeter := notify.NewTargeter(userRepo, notificationRepo, provider)

	dispatcher := delivery.NewDispatcher(registry, hub, publisher, targeter)

	store, err := storage.NewDiskStore(cfg.MediaDir, cfg.MediaBase)
	if err != nil {
		log.Fatalf("init media store: %v", err)
	}

	issuer := relay.NewTokenIssuer(cfg.SigningKey, time.Hour)

	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo, store, dispatcher)
	dmHandler := handlers.NewDMHandler(conversationRepo, directRepo, userRepo, dispatcher)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	relayHandler := handlers.NewRelayHandler(issuer, conversationRepo)

	streamHandler := stream.NewHandler(registry, verifier, userRepo, limiter)
	wsHandler := ws.NewHandler(hub, verifier, userRepo, messageRepo, limiter)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("academy-chat"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)
	apiLimit := middleware.RateLimitMiddleware(limiter, ratelimit.APIWindow)
	sendLimit := middleware.RateLimitMiddleware(limiter, ratelimit.SendWindow)

	router.GET("/rooms", authMiddleware, apiLimit, messageHandler.ListRooms)
	router.GET("/rooms/:room/messages", authMiddleware, apiLimit, messageHandler.FetchHistory)
	router.POST("/rooms/:room/messages", authMiddleware, sendLimit, messageHandler.SendMessage)

	router.GET("/conversations", authMiddleware, apiLimit, dmHandler.ListConversations)
	router.POST("/conversations/start", authMiddleware, apiLimit, dmHandler.StartConversation)
	router.GET("/conversations/:conversation_id/messages", authMiddleware, apiLimit, dmHandler.FetchDirectHistory)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, sendLimit, dmHandler.SendDirectMessage)
	router.POST("/conversations/:conversation_id/read", authMiddleware, apiLimit, dmHandler.MarkRead)

	router.GET("/preferences/notifications", authMiddleware, apiLimit, notificationHandler.GetPreference)
	router.PUT("/preferences/notifications", authMiddleware, apiLimit, notificationHandler.PutPreference)
	router.POST("/push/register", authMiddleware, apiLimit, notificationHandler.RegisterDestination)
	router.DELETE("/push/register", authMiddleware, apiLimit, notificationHandler.UnregisterDestination)

	router.POST("/relay/token", authMiddleware, apiLimit, relayHandler.IssueToken)

	router.GET("/stream", streamHandler.Attach)
	router.GET("/ws/rooms/:room", wsHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/media", cfg.MediaDir)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
