package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"zaidev/internal/auth"
	"zaidev/internal/capabilities"
	"zaidev/internal/config"
	"zaidev/internal/domain/repositories"
	"zaidev/internal/handler"
	"zaidev/internal/middleware"
	"zaidev/internal/repository/memory"
	"zaidev/internal/repository/postgres"
	authService "zaidev/internal/service/auth"
	chatService "zaidev/internal/service/chat"
	genService "zaidev/internal/service/generation"
	"zaidev/internal/tracing"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	var out io.Writer = os.Stdout
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		out = io.MultiWriter(os.Stdout, f)
	}
	logger := config.NewLogger(cfg, out)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"store", cfg.StoreBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg.TracingEnabled, cfg.TracingExporter)
	if err != nil {
		log.Fatalf("Failed to setup tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}

	stack, err := genService.Setup(ctx, cfg, capabilityRegistry, logger)
	if err != nil {
		log.Fatalf("Failed to setup generation backends: %v", err)
	}

	var repo repositories.ConversationRepository
	switch cfg.StoreBackend {
	case "memory":
		repo = memory.NewConversationRepository(cfg.StoreMaxConversations, cfg.StoreTTL)
	case "postgres":
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		pgRepo := postgres.NewConversationRepository(&postgres.RepositoryConfig{
			Pool:   pool,
			Tables: postgres.NewTableNames(cfg.TablePrefix),
			Logger: logger,
		})
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare schema: %v", err)
		}
		repo = pgRepo
		logger.Info("database connected", "table_prefix", cfg.TablePrefix)
	default:
		log.Fatalf("Unknown store backend: %s", cfg.StoreBackend)
	}

	orchestrator := chatService.NewOrchestrator(stack.Client, chatService.Config{
		Suggestions:           cfg.Suggestions,
		PreserveRejectedInput: cfg.PreserveRejectedInput,
	}, logger)
	conversations := chatService.NewConversationService(
		repo,
		orchestrator,
		stack.Client,
		authService.NewOwnerBasedAuthorizer(),
		cfg.Greeting,
		logger,
	)

	handlers := &handler.Handlers{
		Conversations: handler.NewConversationHandler(conversations, logger),
		Media:         handler.NewMediaHandler(stack.Client, logger),
		Models:        handler.NewModelsHandler(stack, capabilityRegistry, logger),
		Health:        handler.NewHealthHandler(stack.BreakerStates),
	}

	// Go 1.22+ enhanced patterns
	mux := http.NewServeMux()
	handlers.Register(mux)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Logging → Auth → Routes
	var h http.Handler = mux
	if cfg.AuthEnabled() {
		verifier, err := auth.NewJWTVerifier(ctx, cfg.AuthJWKSURL, cfg.AuthRequiredRole, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		h = middleware.Auth(verifier, logger)(h)
	} else {
		logger.Warn("auth disabled: conversations are anonymous")
	}
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// A turn is at most two sequential model calls.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.GenerationTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
