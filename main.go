package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/fundhub/fundhub.go/db"
	"github.com/fundhub/fundhub.go/db/migrations"
	"github.com/fundhub/fundhub.go/lib/logging"
	"github.com/fundhub/fundhub.go/lib/service"
	"github.com/fundhub/fundhub.go/lib/tokens"
	"github.com/fundhub/fundhub.go/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun/migrate"

	"github.com/fundhub/fundhub.go/controllers"
)

func main() {

	c := &service.Config{}

	// Load configruation from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	// Setup logging to STDOUT or a configured log file
	logger := logging.Logger(c.LogFilePath)

	// Open a DB connection based on the configured DATABASE_URI
	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}

	// Migrate the DB
	startupCtx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	_, err = migrator.Migrate(startupCtx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}

	// Setup exception tracking with Sentry if configured
	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
	}

	svc := &service.LedgerService{
		Config: c,
		DB:     dbConn,
		Logger: logger,
	}

	// The audit sink is best effort: rabbitmq when configured, otherwise
	// plain structured logs.
	if c.RabbitMQUri != "" {
		auditPublisher, err := rabbitmq.Dial(c.RabbitMQUri,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithAuditExchange(c.RabbitMQAuditExchange),
		)
		if err != nil {
			logger.Fatal(err)
		}
		// close the connection gently at the end of the runtime
		defer auditPublisher.Close()
		svc.AuditSink = auditPublisher
	} else {
		svc.AuditSink = &service.LoggerAuditSink{
			Logger: zerolog.New(os.Stdout).With().Timestamp().Logger(),
		}
	}

	// init echo server
	e := initEcho(c, logger)
	logMw := createLoggingMiddleware(logger)
	// strict rate limit for requests that mutate the ledger
	strictRateLimitMiddleware := createRateLimitMiddleware(c.StrictRateLimit, c.BurstRateLimit)

	secured := e.Group("", tokens.AdminTokenMiddleware(c.AdminToken), logMw)
	securedWithStrictRateLimit := e.Group("", tokens.AdminTokenMiddleware(c.AdminToken), strictRateLimitMiddleware, logMw)

	e.GET("/health", controllers.NewHealthController().Check)

	getTXSCtrl := controllers.NewGetTXSController(svc)
	secured.GET("/transactions", getTXSCtrl.GetTXS)
	secured.GET("/transactions/:id", getTXSCtrl.GetTX)

	securedWithStrictRateLimit.POST("/transactions", controllers.NewCreateTransactionController(svc).CreateTransaction)
	securedWithStrictRateLimit.PUT("/transactions/:id", controllers.NewUpdateTransactionController(svc).UpdateTransaction)

	deleteCtrl := controllers.NewDeleteTransactionController(svc)
	securedWithStrictRateLimit.DELETE("/transactions/:id", deleteCtrl.SoftDelete)
	securedWithStrictRateLimit.POST("/transactions/:id/restore", deleteCtrl.Restore)
	securedWithStrictRateLimit.DELETE("/transactions/:id/permanent", deleteCtrl.PermanentDelete)

	securedWithStrictRateLimit.POST("/transfers", controllers.NewTransferController(svc).CreateTransfer)

	balanceCtrl := controllers.NewBalanceController(svc)
	secured.GET("/funds", balanceCtrl.Funds)
	secured.GET("/funds/:id/balance", balanceCtrl.Balance, createCacheClient().Middleware())

	duplicatesCtrl := controllers.NewDuplicatesController(svc)
	secured.POST("/duplicates/find", duplicatesCtrl.FindDuplicates)
	securedWithStrictRateLimit.POST("/duplicates/resolve", duplicatesCtrl.ResolveDuplicate)

	// Start Prometheus server if enabled
	if c.EnablePrometheus {
		go startPrometheusEcho(logger, svc, e)
	}

	// Start server
	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Fatal(err)
	}
}
