package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/config"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/coupon"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/db"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/display"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/handler"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/lifecycle"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/mailer"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/order"
	"github.com/vasiliy-maslov/ecommerce-microservices/coupon-service/internal/transport"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "coupon-service").Logger()

	log.Info().Msg("Coupon service starting...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	log.Debug().Interface("config_loaded", cfg).Msg("Configuration loaded")

	database, err := db.New(cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	orderClient := order.NewClient(cfg.Services.OrderBaseURL)
	mailerClient := mailer.NewClient(cfg.Services.NotificationBaseURL)

	couponRepo := coupon.NewRepository(database.Pool)
	generator := coupon.NewGenerator(cfg.Coupon.CodePrefix)
	couponSvc := coupon.NewService(couponRepo, orderClient, generator.Generate, cfg.Coupon.ProductSKU, cfg.Coupon.Amount)

	dispatcher := lifecycle.NewDispatcher()
	registerListeners(dispatcher, couponSvc, mailerClient)

	h := handler.NewCouponHandler(dispatcher, orderClient)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      transport.NewRouter(h),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// registerListeners wires the coupon glue onto the lifecycle dispatcher.
func registerListeners(d *lifecycle.Dispatcher, couponSvc coupon.Service, m mailer.Mailer) {
	d.OnPaymentCompleted(func(ctx context.Context, orderID string) error {
		_, err := couponSvc.IssueForOrder(ctx, orderID)
		if errors.Is(err, coupon.ErrAlreadyIssued) {
			// Повторная доставка вебхука, новые купоны не нужны
			return nil
		}
		return err
	})

	d.OnAdminOrderRender(func(ctx context.Context, w io.Writer, ord *order.Order) error {
		return display.AdminOrderSection(w, ord)
	})

	d.OnEmailRender(func(ctx context.Context, w io.Writer, email lifecycle.EmailContext) error {
		return display.EmailSection(w, display.EmailParams{
			Order:       email.Order,
			SentToAdmin: email.SentToAdmin,
			PlainText:   email.PlainText,
			EmailID:     email.EmailID,
		})
	})

	d.OnThankYouRender(func(ctx context.Context, w io.Writer, ord *order.Order) error {
		return display.ThankYouSection(w, ord)
	})

	d.RegisterOrderAction("resend_coupon_email", "Resend Coupon Email", func(ctx context.Context, ord *order.Order) error {
		return m.TriggerTemplate(ctx, mailer.TemplateCustomerCompletedOrder, ord.ID)
	})
}
