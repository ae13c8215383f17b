package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeynil/BookStoreTochka/internal/api"
	"github.com/honeynil/BookStoreTochka/internal/config"
	"github.com/honeynil/BookStoreTochka/internal/handler"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/auth"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/kafka"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/payment"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	"github.com/honeynil/BookStoreTochka/internal/observability"
	"github.com/honeynil/BookStoreTochka/internal/repository/cache"
	core "github.com/honeynil/BookStoreTochka/internal/repository/postgres"
	service "github.com/honeynil/BookStoreTochka/internal/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()

	// Инициализируем логи, метрики, трейсы
	shutdown := observability.Setup("bookstore-service", cfg.MetricsAddr)
	defer shutdown(context.Background())

	// Подключаемся к Postgres (драйвер postgres или pgx)
	db, err := sql.Open(cfg.PostgresDriver, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := core.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	cancelMigrate()

	// Инициализируем зависимости
	redisClient := redis.NewClient(cfg.RedisAddr)
	defer redisClient.Close()

	userRepo := core.NewPostgresUserRepository(db)
	bookRepo := cache.NewBookRepository(core.NewPostgresBookRepository(db), redisClient, cfg.BookCacheTTL)
	purchaseRepo := core.NewPostgresPurchaseRepository(db)
	usageRepo := core.NewPostgresUsageRepository(db)

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	processor := payment.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, cfg.PaymentTimeout, cfg.PaymentRetries)
	verifier, err := payment.NewWebhookVerifier(cfg.PaymentWebhookSecret)
	if err != nil {
		log.Fatalf("Failed to configure payment webhooks: %v", err)
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	// Инициализируем сервисы
	authService := service.NewAuthService(userRepo, redisClient, tokens)
	catalogService := service.NewCatalogService(bookRepo)
	purchaseService := service.NewPurchaseService(
		userRepo,
		bookRepo,
		purchaseRepo,
		processor,
		redis.NewLocker(redisClient, cfg.PurchaseLockTTL, cfg.PurchaseLockWait),
		producer,
		service.PurchaseConfig{
			Currency:           cfg.PaymentCurrency,
			PublicBaseURL:      cfg.PublicBaseURL,
			PurchasesTopic:     cfg.KafkaPurchasesTopic,
			DownloadsTopic:     cfg.KafkaDownloadsTopic,
			PaymentTimeout:     cfg.PaymentTimeout,
			VerifyWait:         cfg.VerifyWait,
			VerifyPollInterval: cfg.VerifyPollInterval,
		},
	)

	// Настраиваем Kafka-консьюмер событий использования
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	usageConsumer := kafka.NewConsumer(cfg.KafkaBrokers, []string{cfg.KafkaPurchasesTopic, cfg.KafkaDownloadsTopic}, cfg.KafkaGroupID, usageRepo)
	go usageConsumer.Consume(consumerCtx)
	defer usageConsumer.Close()
	defer stopConsumer()

	// Настраиваем роутер
	h := handler.NewHandler(authService, catalogService, purchaseService, verifier, redisClient)
	router := api.SetupRouter(h, redisClient, tokens)

	// Запускаем сервер
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Starting server on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
