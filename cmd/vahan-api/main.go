// README: Entry point; loads config, wires stores and services, starts the
// HTTP server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vahan/internal/config"
	"vahan/internal/gateway"
	httptransport "vahan/internal/http"
	"vahan/internal/infra"
	"vahan/internal/maps"
	"vahan/internal/modules/booking"
	"vahan/internal/modules/penalty"
	"vahan/internal/modules/pricing"
	"vahan/internal/modules/vehicle"
	"vahan/internal/modules/wallet"
	"vahan/internal/notify"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("db init failed", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	var notifier booking.Notifier = notify.Noop{}
	if cfg.AMQP.URL != "" {
		pub, conn, err := notify.Connect(cfg.AMQP.URL, log)
		if err != nil {
			log.Warn("amqp unavailable, notifications disabled", "err", err)
		} else {
			defer conn.Close()
			notifier = pub
		}
	}

	distanceSvc, err := maps.NewDistanceService(cfg.Maps.APIKey, cfg.Policy.RoadFactor, log)
	if err != nil {
		log.Error("maps init failed", "err", err)
		os.Exit(1)
	}
	distance := maps.NewCachedDistance(distanceSvc, redisClient, log)

	pricingSvc := pricing.NewService(pricing.NewPGStore(dbPool), pricing.Config{
		GSTPercent:          cfg.Policy.GSTPercent,
		AllowOneWayFallback: cfg.Policy.OneWayTierFallback,
	})
	vehicleSvc := vehicle.NewService(vehicle.NewPGStore(dbPool), log)
	walletSvc := wallet.NewService(wallet.NewPGStore(dbPool), cfg.Policy.WalletFloor, log)
	penaltySvc := penalty.NewService(penalty.NewPGStore(dbPool), walletSvc, log)

	bookingStore := booking.NewPGStore(dbPool)
	bookingSvc := booking.NewService(booking.Deps{
		Store:     bookingStore,
		Vehicles:  vehicleSvc,
		Pricer:    pricingSvc,
		Wallets:   walletSvc,
		Penalties: penaltySvc,
		Distance:  distance,
		Customers: bookingStore,
		Gateway:   gateway.NewClient(cfg.Gateway.KeyID, cfg.Gateway.KeySecret, cfg.Gateway.BaseURL),
		Notifier:  notifier,
		Numbers:   booking.NewRedisNumbers(redisClient, log),
		Config: booking.Config{
			OnlineSplitPercent: cfg.Policy.OnlineSplitPercent,
			CommissionPercent:  cfg.Policy.CommissionPercent,
			ReferralReward:     cfg.Policy.ReferralReward,
			Currency:           "INR",
		},
		Logger: log,
	})

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Booking:   bookingSvc,
		Wallets:   walletSvc,
		Penalties: penaltySvc,
		JWTSecret: cfg.JWT.Secret,
		Logger:    log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "err", err)
		}
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}
