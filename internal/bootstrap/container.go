package bootstrap

import (
	"context"
	"log"

	"prepxl-be/internal/config"
	"prepxl-be/internal/controller"
	"prepxl-be/internal/draft"
	"prepxl-be/internal/interview"
	"prepxl-be/internal/pkg/logger"
	"prepxl-be/internal/repository/unitofwork"
	"prepxl-be/internal/service"
	"prepxl-be/pkg/llm/factory"
	"prepxl-be/pkg/question"

	pktNats "prepxl-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController   controller.ISessionController
	InterviewController controller.IInterviewController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// Live session registry, exposed for shutdown
	Registry *interview.Registry

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	redisUp := true
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		redisUp = false
	}

	// Draft store: Redis so drafts survive a restart, memory fallback
	var draftStore draft.Store
	if redisUp {
		draftStore = draft.NewRedisStore(rdb)
		log.Printf("[INFO] Using Redis draft store")
	} else {
		draftStore = draft.NewMemoryStore()
		log.Printf("[WARN] Redis unavailable, drafts held in memory only")
	}

	// 3. Question Provider
	var questionProvider question.Provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Printf("[WARN] Failed to initialize LLM Provider: %v. Using static question pools", err)
		questionProvider = question.NewStaticProvider(interview.MaxQuestions)
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
		questionProvider = question.NewGenerator(llmProvider, interview.MaxQuestions)
	}

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, cfg.App.EventTopicName)
	consumerService := service.NewConsumerService(pubSub, cfg.App.EventTopicName, natsPub)

	gateway := interview.NewStoreGateway(uowFactory)
	registry := interview.NewRegistry()

	sessionService := service.NewSessionService(uowFactory)
	interviewService := service.NewInterviewService(
		registry,
		gateway,
		questionProvider,
		draftStore,
		publisherService,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		SessionController:   controller.NewSessionController(sessionService),
		InterviewController: controller.NewInterviewController(interviewService, sysLogger),

		ConsumerService: consumerService,
		Registry:        registry,
		Logger:          sysLogger,
	}
}
