package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quickcourt/internal/booking"
	"quickcourt/internal/config"
	"quickcourt/internal/db"
	"quickcourt/internal/email"
	"quickcourt/internal/events"
	"quickcourt/internal/logger"
	"quickcourt/internal/obs"
	"quickcourt/internal/server"

	"github.com/redis/go-redis/v9"
)

// @title QuickCourt API
// @version 1.0
// @description Sports venue discovery and court booking.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting QuickCourt application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracer, err := obs.InitTracer(ctx, "quickcourt", cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		logger.Warn("Tracing disabled", "error", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
	}

	emailService := email.New(rdb, newSender(cfg))
	defer emailService.Close()
	go emailService.Start(ctx)

	publisher := newPublisher(cfg)
	defer publisher.Close()

	srv := server.New(database, rdb, cfg, emailService, publisher)

	go booking.NewSweeper(srv.Bookings(), cfg.SweepInterval).Run(ctx)

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("Tracer shutdown failed", "error", err)
	}

	logger.Info("Server stopped")
}

func newSender(cfg *config.Config) email.Sender {
	if cfg.MailerSendAPIKey != "" {
		logger.Info("Email transport: MailerSend")
		return email.NewMailerSendSender(cfg.MailerSendAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	}
	logger.Info("Email transport: SMTP", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	return &email.SMTPSender{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Pass:     cfg.SMTPPass,
	}
}

func newPublisher(cfg *config.Config) events.Publisher {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set, booking events are dropped")
		return events.NopPublisher{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		logger.Warn("RabbitMQ unavailable, booking events are dropped", "error", err)
		return events.NopPublisher{}
	}
	logger.Info("Publishing booking events", "exchange", cfg.AMQPExchange)
	return p
}
