package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"medicore-triage-be/internal/config"
	"medicore-triage-be/internal/controller"
	"medicore-triage-be/internal/handler"
	"medicore-triage-be/internal/pkg/logger"
	"medicore-triage-be/internal/pkg/serverutils"
	"medicore-triage-be/internal/repository/memory"
	"medicore-triage-be/internal/repository/unitofwork"
	"medicore-triage-be/internal/service"
	"medicore-triage-be/internal/websocket"
	"medicore-triage-be/pkg/embedding"
	"medicore-triage-be/pkg/embedding/jina"
	"medicore-triage-be/pkg/llm/factory"
	pktNats "medicore-triage-be/pkg/nats"
	ragcontext "medicore-triage-be/pkg/rag/context"
	"medicore-triage-be/pkg/rag/vectorindex"
)

type Container struct {
	// Controllers
	TriageController   controller.ITriageController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// Exposed for snapshot persistence on shutdown
	VectorIndex       *vectorindex.Index
	IndexSnapshotPath string
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	serverutils.SetJWTSecret(cfg.Keys.JWTSecret)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmAPIKey := cfg.Keys.HuggingFace
	if cfg.Ai.LLMProvider == "openai" {
		llmAPIKey = cfg.Keys.OpenAI
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		llmAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. In-Memory State
	sessionRepo := memory.NewSessionRepository(cfg.Triage.SessionTTL, cfg.Triage.SessionPurgeEvery)

	indexLogger := log.New(os.Stdout, "[INDEX] ", log.LstdFlags)
	vectorIndex := vectorindex.NewIndex(5, indexLogger)
	hydrateIndex(vectorIndex, cfg.Triage.IndexSnapshotPath, uowFactory, indexLogger)

	assembler := ragcontext.NewAssembler(vectorIndex, embeddingProvider, 0, 0, indexLogger)

	// 5. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestionTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestionTopic,
		uowFactory,
		embeddingProvider,
		vectorIndex,
		natsPub,
		sysLogger,
	)

	// A failed NATS connection leaves natsPub as a typed nil pointer; keep the
	// interface nil in that case so the service skips publishing.
	var lifecycleEvents service.IEventPublisher
	if natsPub != nil {
		lifecycleEvents = natsPub
	}
	triageService := service.NewTriageService(
		uowFactory,
		sessionRepo,
		assembler,
		llmProvider,
		lifecycleEvents,
		sysLogger,
	)

	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		publisherService,
		embeddingProvider,
		llmProvider,
		vectorIndex,
		sysLogger,
	)

	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	notifHandler := handler.NewNotificationHandler(natsPub, wsHub, wsLogger)

	// 7. Controllers
	return &Container{
		TriageController:    controller.NewTriageController(triageService),
		DocumentController:  controller.NewDocumentController(knowledgeService),
		ConsumerService:     consumerService,
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		VectorIndex:         vectorIndex,
		IndexSnapshotPath:   cfg.Triage.IndexSnapshotPath,
	}
}

// hydrateIndex loads the vector index from its snapshot, falling back to a
// rebuild from the database when no snapshot exists.
func hydrateIndex(index *vectorindex.Index, snapshotPath string, uowFactory unitofwork.RepositoryFactory, indexLogger *log.Logger) {
	if err := os.MkdirAll(filepath.Dir(snapshotPath), 0755); err != nil {
		indexLogger.Printf("failed to create snapshot directory: %v", err)
	}

	if err := index.LoadFile(snapshotPath); err != nil {
		indexLogger.Printf("snapshot load failed, rebuilding from database: %v", err)
	}
	if index.Len() > 0 {
		indexLogger.Printf("index hydrated from snapshot: %d chunks", index.Len())
		return
	}

	ctx := context.Background()
	uow := uowFactory.NewUnitOfWork(ctx)
	stored, err := uow.DocumentChunkRepository().FindAll(ctx)
	if err != nil {
		indexLogger.Printf("index rebuild query failed: %v", err)
		return
	}
	if len(stored) == 0 {
		return
	}

	chunks := make([]vectorindex.Chunk, len(stored))
	for i, c := range stored {
		chunks[i] = vectorindex.Chunk{
			ID:         c.Id.String(),
			TenantID:   c.UserId.String(),
			Source:     c.DocumentId.String(),
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			Embedding:  c.EmbeddingValue,
		}
	}
	if err := index.Rebuild(chunks); err != nil {
		indexLogger.Printf("index rebuild failed: %v", err)
		return
	}
	indexLogger.Printf("index rebuilt from database: %d chunks", len(chunks))
}
