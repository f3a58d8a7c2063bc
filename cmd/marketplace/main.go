package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/matheusmosca/furniture-marketplace/internal/auth"
	"github.com/matheusmosca/furniture-marketplace/internal/config"
	"github.com/matheusmosca/furniture-marketplace/internal/database"
	"github.com/matheusmosca/furniture-marketplace/internal/locking"
	"github.com/matheusmosca/furniture-marketplace/internal/logging"
	"github.com/matheusmosca/furniture-marketplace/internal/storage"
	"github.com/matheusmosca/furniture-marketplace/services/catalog"
	"github.com/matheusmosca/furniture-marketplace/services/clients"
	"github.com/matheusmosca/furniture-marketplace/services/ideas"
	"github.com/matheusmosca/furniture-marketplace/services/invoices"
	"github.com/matheusmosca/furniture-marketplace/services/messages"
	"github.com/matheusmosca/furniture-marketplace/services/orders"
	"github.com/matheusmosca/furniture-marketplace/services/payments"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	// marketplace token <client|company> <id> [name] emite um token de desenvolvimento
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := printToken(cfg.JWTSecret, os.Args[2:]); err != nil {
			logger.Fatalf("Failed to issue token: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	tp, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Errorf("Error shutting down tracer: %v", err)
		}
	}()

	mp, err := initMetrics(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize metrics: %v", err)
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			logger.Errorf("Error shutting down meter: %v", err)
		}
	}()

	// Initialize database
	if cfg.RunMigrations {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
	}

	dbPool, err := database.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbPool.Close()

	locker, closeLocker, err := initLocker(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize redis: %v", err)
	}
	defer closeLocker()

	var files storage.Resolver = storage.PassthroughResolver{}
	if cfg.StorageEnabled() {
		files = storage.NewSupabaseResolver(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket, cfg.ReceiptURLTTL)
	} else {
		logger.Warn("⚠️ Supabase storage not configured, file references are returned as-is")
	}

	// Initialize dependencies
	tracer := tp.Tracer(cfg.ServiceName)
	meter := mp.Meter(cfg.ServiceName)
	txBeginner := database.NewTxBeginner(dbPool)

	catalogRepository := catalog.NewCatalogRepository(dbPool)
	messageRepository := messages.NewMessageRepository(dbPool)
	orderRepository := orders.NewOrderRepository(dbPool)
	invoiceRepository := invoices.NewInvoiceRepository(dbPool)

	catalogUseCase := catalog.NewCatalogUseCase(catalogRepository, tracer, logger)
	ideaUseCase := ideas.NewIdeaUseCase(ideas.NewIdeaRepository(dbPool), catalogRepository, messageRepository, txBeginner, tracer, meter, logger)
	messageUseCase := messages.NewMessageUseCase(messageRepository, txBeginner, tracer, logger)
	orderUseCase := orders.NewOrderUseCase(orderRepository, txBeginner, orders.PolicyFor(cfg.StrictOrderTransitions), tracer, logger)
	invoiceUseCase := invoices.NewInvoiceUseCase(invoiceRepository)
	paymentUseCase := payments.NewPaymentUseCase(payments.Dependencies{
		Repository: payments.NewPaymentRepository(dbPool),
		Products:   catalogRepository,
		Orders:     orderRepository,
		Invoices:   invoiceRepository,
		Profiles:   clients.NewProfileRepository(dbPool),
		Messages:   messageRepository,
		TxBeginner: txBeginner,
		Locker:     locker,
	}, cfg.DeliveryLeadDays, tracer, meter, logger)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg.ServiceName, cfg.JWTSecret, handlers{
		catalog:  catalog.NewCatalogHandler(catalogUseCase, files, tracer),
		ideas:    ideas.NewIdeaHandler(ideaUseCase, files, tracer),
		payments: payments.NewPaymentHandler(paymentUseCase, files, tracer, logger),
		orders:   orders.NewOrderHandler(orderUseCase, tracer),
		invoices: invoices.NewInvoiceHandler(invoiceUseCase),
		messages: messages.NewMessageHandler(messageUseCase, files),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		logger.Infof("🚀 Marketplace Service listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}
}

func runMigrations(dbURL string, logger logrus.FieldLogger) error {
	migrator, err := database.NewMigrator(dbURL, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run()
}

// initLocker usa Redis quando configurado; sem REDIS_ADDR só o lock de linha protege a confirmação
func initLocker(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (locking.Locker, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("ℹ️ REDIS_ADDR not set, confirmations rely on row locks only")
		return locking.NoopLocker{}, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Infof("✅ Connected to redis at %s", cfg.RedisAddr)
	return locking.NewRedisLocker(rdb, cfg.ConfirmLockTTL, logger), func() { rdb.Close() }, nil
}

func printToken(secret string, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: marketplace token <client|company> <id> [name]")
	}

	kind := auth.ActorKind(args[0])
	if kind != auth.ActorClient && kind != auth.ActorCompany {
		return fmt.Errorf("unknown actor kind %q", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid actor id %q", args[1])
	}
	name := string(kind)
	if len(args) > 2 {
		name = args[2]
	}

	token, err := auth.IssueToken(secret, auth.Actor{ID: id, Kind: kind, Name: name})
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
