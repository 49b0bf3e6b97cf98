package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mitaict-site/internal/config"
	"mitaict-site/internal/domain"
	"mitaict-site/internal/messaging"
	"mitaict-site/internal/notify"
	"mitaict-site/internal/observability"
)

const handleTimeout = 60 * time.Second

func main() {
	cfg := config.Load()
	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting notifier")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rmqCtx, rmqCancel := context.WithTimeout(ctx, 60*time.Second)
	rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL)
	rmqCancel()
	if err != nil {
		slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rmq.Close()
	slog.Info("connected to rabbitmq")

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	notifier := notify.New(mailer, cfg.AdminNotifyEmail)

	msgs, err := rmq.ConsumeNotifications()
	if err != nil {
		slog.Error("failed to start consuming", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("notifier is ready",
		slog.String("smtp_host", cfg.SMTPHost),
		slog.String("admin_email", cfg.AdminNotifyEmail))

	done := make(chan struct{})
	go func() {
		defer close(done)
		messaging.Dispatch(ctx, msgs, false, func(ctx context.Context, event *domain.Event) error {
			ctx, cancel := context.WithTimeout(ctx, handleTimeout)
			defer cancel()
			return notifier.Handle(ctx, event)
		})
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		slog.Info("shutting down notifier")
	case <-done:
		slog.Warn("notification consumer stopped")
	}

	cancel()
	<-done

	slog.Info("notifier stopped gracefully")
}
