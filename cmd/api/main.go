package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"

	"legalrag-ai/internal/config"
	"legalrag-ai/internal/http"
	"legalrag-ai/internal/intent"
	"legalrag-ai/internal/llm"
	"legalrag-ai/internal/moderation"
	"legalrag-ai/internal/rag"
	"legalrag-ai/internal/service"
	"legalrag-ai/internal/storage"
	"legalrag-ai/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// Initialize session database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	sessionRepo := storage.NewSessionRepo(db)

	// Vector store holding the passages written by the embedding indexer
	vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
	if err != nil {
		log.Fatalf("Failed to create Qdrant client: %v", err)
	}
	slog.Info("Qdrant client ready", "url", cfg.QdrantURL, "collection", cfg.QdrantCollection)

	// Outbound model clients. These handles are constructed once and shared
	// read-only by all requests.
	llmClient := llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.EmbeddingModel)

	gate := moderation.NewGate(llmClient, cfg.ModerationModel)
	classifier := intent.NewClassifier(llmClient, cfg.IntentModel)

	engine := rag.NewEngine(llmClient, vectorStore, rag.Params{
		Collection:          cfg.QdrantCollection,
		SimilarityThreshold: cfg.SimilarityThreshold,
		RetrievalLimit:      cfg.RetrievalLimit,
		MinContentLength:    cfg.MinContentLength,
		ContextTokenCeiling: cfg.ContextTokenCeiling,
	})
	slog.Info("Retrieval engine initialized",
		"similarity_threshold", cfg.SimilarityThreshold,
		"retrieval_limit", cfg.RetrievalLimit,
		"token_ceiling", cfg.ContextTokenCeiling,
	)

	answerService := service.NewAnswerService(
		gate,
		classifier,
		engine,
		llm.NewChat(llmClient, cfg.ChatModel),
		cfg.HistoryLimit,
	)

	deps := &http.Deps{
		AnswerService: answerService,
		Sessions:      sessionRepo,
	}
	router := http.NewRouter(deps)

	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("Model configuration", "chat_model", cfg.ChatModel, "embedding_model", cfg.EmbeddingModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
