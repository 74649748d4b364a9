package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/oldgoods/thriftstore/internal/cart"
	"github.com/oldgoods/thriftstore/internal/config"
	"github.com/oldgoods/thriftstore/internal/fulfillment"
	kafkax "github.com/oldgoods/thriftstore/internal/kafka"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/postgres"
	"github.com/oldgoods/thriftstore/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.JSONFormatter{})

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &fulfillment.Service{
		Carts:       &cart.Repo{DB: db},
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-fulfillment",
	}

	group := getenv("FULFILLMENT_GROUP", "fulfillment-svc")
	workers := mustAtoi(os.Getenv("FULFILLMENT_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicPaymentAccepted, workers)

	go func() {
		log.WithFields(log.Fields{
			"group":   group,
			"topic":   orders.TopicPaymentAccepted,
			"workers": workers,
		}).Info("fulfillment consumer started")
		if err := cons.Start(ctx, svc.HandlePaymentAccepted); err != nil {
			log.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	metricsAddr := getenv("METRICS_ADDR", ":9091")
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.WithError(err).Warn("metrics listener stopped")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
