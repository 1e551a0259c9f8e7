package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/config"
	"github.com/md-rashed-zaman/clinicbook/libs/db"
	"github.com/md-rashed-zaman/clinicbook/libs/grpcx"
	"github.com/md-rashed-zaman/clinicbook/libs/httpx"
	"github.com/md-rashed-zaman/clinicbook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/clinicbook/libs/otel"
	"github.com/md-rashed-zaman/clinicbook/libs/runtime"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/consumer"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/email"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/events"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/inbox"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/notifier"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/push"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/reminders"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/internal/storage"
	"github.com/md-rashed-zaman/clinicbook/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service, config.String("LOG_LEVEL", "info"))

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	if config.Bool("DB_AUTO_MIGRATE", true) {
		if err := db.Migrate(dbURL, migrations.FS, ".", "notification_schema_migrations", logger); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(config.Int("DB_MAX_CONNS", 5))})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	mailer := email.NewSMTPSender(email.SMTPConfig{
		Host:     config.String("SMTP_HOST", "mailpit"),
		Port:     config.String("SMTP_PORT", "1025"),
		From:     config.String("SMTP_FROM", "no-reply@clinicbook.local"),
		Username: config.String("SMTP_USERNAME", ""),
		Password: config.String("SMTP_PASSWORD", ""),
	})

	var pusher push.Sender
	switch strings.ToLower(config.String("PUSH_PROVIDER", "noop")) {
	case "webhook":
		pusher = push.NewWebhookSender(config.String("PUSH_WEBHOOK_URL", ""), config.String("PUSH_WEBHOOK_TOKEN", ""))
	default:
		pusher = push.NewNoopSender()
	}

	notifications := storage.NewRepository(pool)
	reminderRepo := reminders.NewRepository(pool)
	offsets, invalid := reminders.ParseOffsets(config.List("REMINDER_OFFSETS_MINUTES", "1440,60"))
	for _, v := range invalid {
		logger.Warn("invalid reminder offset", "value", v)
	}
	worker := reminders.NewWorker(reminderRepo, mailer, notifications, logger, reminders.WorkerConfig{
		Interval:  config.Duration("REMINDER_POLL_INTERVAL", 15*time.Second),
		BatchSize: config.Int("REMINDER_BATCH_SIZE", 50),
		Backoff:   config.Duration("REMINDER_RETRY_BACKOFF", time.Minute),
	})
	go worker.Run(ctx)

	n := notifier.New(mailer, pusher, notifications, reminders.NewPlanner(reminderRepo, offsets), logger)
	brokers := config.List("KAFKA_BROKERS", "")
	if len(brokers) == 0 {
		logger.Warn("event consumer disabled (no kafka brokers configured)")
	} else {
		eventConsumer := consumer.New(logger, inbox.NewRepository(pool), consumer.Config{
			Brokers:     brokers,
			GroupID:     config.String("KAFKA_GROUP_ID", service),
			Topics:      events.Topics,
			MaxAttempts: config.Int("NOTIFY_MAX_ATTEMPTS", 3),
			Backoff:     config.Duration("NOTIFY_RETRY_BACKOFF", time.Second),
		}, n.Handle)
		go eventConsumer.Run(ctx)
	}

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
		{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	}
	if addr := config.String("CLINIC_GRPC_ADDR", ""); addr != "" {
		conn, err := grpcx.NewClient(addr, grpcx.DialOptions{})
		if err != nil {
			panic(err)
		}
		defer conn.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "clinic-service", Check: grpcx.ReadyCheck(conn, "")})
	}

	mux := http.NewServeMux()
	runtime.MountProbes(mux, checks...)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
	)
	handler = otelhttp.NewHandler(handler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
