package bootstrap

import (
	"log"

	"agent-learning-be/internal/config"
	"agent-learning-be/internal/pkg/logger"
	"agent-learning-be/internal/repository/memory"
	"agent-learning-be/internal/repository/unitofwork"
	"agent-learning-be/internal/service"
	"agent-learning-be/pkg/embedding"

	pkgNats "agent-learning-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Core Services
	ExtractionService     service.IExtractionService
	EffectivenessService  service.IEffectivenessService
	CategorizationService service.ICategorizationService
	CleanupService        service.ICleanupService
	RetrievalService      service.IRetrievalService

	// Background Services (Exposed for main.go to run)
	SchedulerService service.ISchedulerService
	ConsumerService  service.IConsumerService

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

	// NATS is optional; the scheduler skips outbound events when absent.
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// 3. Embedding
	embeddingProvider := embedding.NewCachedProvider(embedding.NewHashProvider())

	// 4. Context Cache
	contextCache := memory.NewContextCache(cfg.Learning.CacheMaxSize, cfg.Learning.CacheTTL)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Learning.MetricsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Learning.MetricsTopic,
		uowFactory,
		sysLogger,
	)

	extractionService := service.NewExtractionService(uowFactory, embeddingProvider, sysLogger)
	effectivenessService := service.NewEffectivenessService(uowFactory, sysLogger)
	categorizationService := service.NewCategorizationService(uowFactory, embeddingProvider, sysLogger)
	cleanupService := service.NewCleanupService(
		uowFactory,
		sysLogger,
		cfg.Learning.MaxPatternAge,
		cfg.Learning.MinUsageCount,
	)
	retrievalService := service.NewRetrievalService(uowFactory, contextCache, sysLogger)

	schedulerService := service.NewSchedulerService(
		extractionService,
		effectivenessService,
		cleanupService,
		publisherService,
		natsPub,
		uowFactory,
		sysLogger,
		service.SchedulerIntervals{
			Extraction: cfg.Learning.ExtractionInterval,
			Scoring:    cfg.Learning.ScoringInterval,
			Cleanup:    cfg.Learning.CleanupInterval,
		},
	)

	return &Container{
		ExtractionService:     extractionService,
		EffectivenessService:  effectivenessService,
		CategorizationService: categorizationService,
		CleanupService:        cleanupService,
		RetrievalService:      retrievalService,
		SchedulerService:      schedulerService,
		ConsumerService:       consumerService,
		Logger:                sysLogger,
	}
}
