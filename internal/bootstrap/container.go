package bootstrap

import (
	"context"
	"log"
	"time"

	"reconcile-be/internal/config"
	"reconcile-be/internal/controller"
	"reconcile-be/internal/handler"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/pkg/mailer"
	"reconcile-be/internal/repository/memory"
	"reconcile-be/internal/repository/unitofwork"
	"reconcile-be/internal/service"
	"reconcile-be/internal/websocket"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/extraction"
	"reconcile-be/pkg/llm/factory"
	pktNats "reconcile-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController      controller.ISessionController
	StageController        controller.IStageController
	NeedsController        controller.INeedsController
	CommonGroundController controller.ICommonGroundController
	MessageController      controller.IMessageController

	// Background services (started by main.go)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Gateway service.IPartnerGateway
	closers []func()
}

// NewContainer wires the application. db may be nil when cfg selects the
// in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	var uowFactory unitofwork.RepositoryFactory
	if cfg.Database.Driver == "memory" || db == nil {
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
		log.Printf("[WARN] Using in-memory store; state is lost on restart")
	} else {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.Email,
			cfg.App.ClientURL,
		)
	} else {
		log.Printf("[WARN] SMTP_HOST not set, invitation e-mails are disabled")
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI collaborator
	llmProvider, err := factory.NewLLMProvider(llmConfig(cfg))
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	analyzer := analysis.NewLLMAnalyzer(llmProvider)

	// 4. Infrastructure
	c := &Container{}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	} else {
		c.closers = append(c.closers, natsPub.Close)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	} else {
		c.closers = append(c.closers, natsSub.Close)
	}

	rdb := connectRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	var coordinator extraction.Coordinator
	if cfg.Extraction.LockBackend == "redis" && rdb != nil {
		coordinator = extraction.NewRedisCoordinator(rdb, cfg.Extraction.LockTTL)
		log.Printf("[INFO] Extraction lock: redis (ttl %s)", cfg.Extraction.LockTTL)
	} else {
		coordinator = extraction.NewMemoryCoordinator(cfg.Extraction.LockTTL)
		log.Printf("[INFO] Extraction lock: in-process (ttl %s)", cfg.Extraction.LockTTL)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 5. Notification system
	notifService := service.NewNotificationService(uowFactory, natsSub, wsHub, wsLogger) // Hub implements NotificationDelivery

	// An untyped nil keeps the gateway from calling a nil *Publisher.
	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	gateway := service.NewPartnerGateway(eventPublisher, notifService, sysLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Transition.TopicName, pubSub)
	transitions := service.NewTransitionRequester(publisherService, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Transition.TopicName,
		uowFactory,
		analyzer,
		gateway,
		sysLogger,
	)

	sessionService := service.NewSessionService(uowFactory, emailService, gateway, sysLogger)
	stageService := service.NewStageService(uowFactory, gateway, transitions, sysLogger)
	commonGroundService := service.NewCommonGroundService(uowFactory, analyzer, coordinator, gateway, transitions, sysLogger)
	needsService := service.NewNeedsService(uowFactory, analyzer, coordinator, commonGroundService, gateway, sysLogger)
	messageService := service.NewMessageService(uowFactory)

	// 7. Controllers
	c.SessionController = controller.NewSessionController(sessionService)
	c.StageController = controller.NewStageController(stageService)
	c.NeedsController = controller.NewNeedsController(needsService)
	c.CommonGroundController = controller.NewCommonGroundController(commonGroundService)
	c.MessageController = controller.NewMessageController(messageService)

	c.ConsumerService = consumerService
	c.NotificationService = notifService
	c.NotificationHandler = handler.NewNotificationHandler(notifService, wsHub, wsLogger)
	c.WebSocketHub = wsHub
	c.Gateway = gateway
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	return c
}

// Start runs the background workers until ctx is cancelled.
func (c *Container) Start(ctx context.Context) error {
	go c.WebSocketHub.Run(ctx)
	c.NotificationService.Start(ctx)
	return c.ConsumerService.Consume(ctx)
}

// Close waits for in-flight notifications, then releases connections.
func (c *Container) Close() {
	c.Gateway.Flush()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func llmConfig(cfg *config.Config) factory.Config {
	return factory.Config{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		OllamaBaseURL:  cfg.Ai.OllamaBaseURL,
		HFBaseURL:      cfg.Ai.HFBaseURL,
		HuggingFaceKey: cfg.Ai.HuggingFaceKey,
	}
}

// connectRedis returns nil when no URL is set or the server is unreachable.
func connectRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
