package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/oldgoods/thriftstore/internal/cart"
	"github.com/oldgoods/thriftstore/internal/catalog"
	"github.com/oldgoods/thriftstore/internal/config"
	"github.com/oldgoods/thriftstore/internal/dashboard"
	"github.com/oldgoods/thriftstore/internal/discounts"
	"github.com/oldgoods/thriftstore/internal/httpx"
	kafkax "github.com/oldgoods/thriftstore/internal/kafka"
	"github.com/oldgoods/thriftstore/internal/orders"
	"github.com/oldgoods/thriftstore/internal/payments"
	"github.com/oldgoods/thriftstore/internal/postgres"
	"github.com/oldgoods/thriftstore/internal/redisx"
	"github.com/oldgoods/thriftstore/internal/uploads"
	"github.com/oldgoods/thriftstore/internal/users"
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

	createdProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	acceptedProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentAccepted, 1024)
	statusProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	createdProd.Start(ctx)
	acceptedProd.Start(ctx)
	statusProd.Start(ctx)

	orderRepo := &orders.Repo{DB: db}
	cartRepo := &cart.Repo{DB: db}
	productRepo := &catalog.Repo{DB: db}
	userRepo := &users.Repo{DB: db}
	discountRepo := &discounts.Repo{DB: db}
	sessions := &users.SessionStore{Redis: rdb, TTL: cfg.SessionTTL}
	proofs := &uploads.Store{Root: cfg.UploadDir}

	router := httpx.NewRouter(cfg.ServiceName, cfg.UploadDir)

	usersH := &httpx.UsersHandler{Users: userRepo, Sessions: sessions}
	catalogH := &httpx.CatalogHandler{Products: productRepo}
	cartH := &httpx.CartHandler{Carts: cartRepo}
	discountsH := &httpx.DiscountsHandler{Discounts: discountRepo}
	ordersH := &httpx.OrdersHandler{
		Orders:         orderRepo,
		Proofs:         proofs,
		CreatedEvents:  createdProd,
		AcceptedEvents: acceptedProd,
		Verifier:       payments.New(cfg.PaymentGatewayURL),
		Redis:          rdb,
		Service:        cfg.ServiceName,
	}
	adminH := &httpx.AdminHandler{
		Orders:       orderRepo,
		Users:        userRepo,
		Dashboard:    &dashboard.Service{DB: db},
		StatusEvents: statusProd,
		Redis:        rdb,
		Service:      cfg.ServiceName,
	}

	router.Route("/api", func(r chi.Router) {
		usersH.RegisterPublic(r)
		catalogH.RegisterPublic(r)

		r.Group(func(r chi.Router) {
			r.Use(httpx.RequireSession(sessions))
			usersH.RegisterPrivate(r)
			cartH.Register(r)
			ordersH.Register(r)
			discountsH.RegisterPrivate(r)

			r.Group(func(r chi.Router) {
				r.Use(httpx.RequireAdmin)
				adminH.Register(r)
				catalogH.RegisterAdmin(r)
				discountsH.RegisterAdmin(r)
			})
		})
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// close inboxes, stop loops, drain
	createdProd.Close()
	acceptedProd.Close()
	statusProd.Close()
	cancel()
	createdProd.WaitClosed()
	acceptedProd.WaitClosed()
	statusProd.WaitClosed()
}
