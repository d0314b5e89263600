package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/auth"
	"github.com/ariefcatur/go-shop-backend.git/internal/cart"
	"github.com/ariefcatur/go-shop-backend.git/internal/catalog"
	"github.com/ariefcatur/go-shop-backend.git/internal/config"
	"github.com/ariefcatur/go-shop-backend.git/internal/httpx"
	"github.com/ariefcatur/go-shop-backend.git/internal/jobs"
	kafkax "github.com/ariefcatur/go-shop-backend.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backend.git/internal/lock"
	"github.com/ariefcatur/go-shop-backend.git/internal/metrics"
	"github.com/ariefcatur/go-shop-backend.git/internal/order"
	"github.com/ariefcatur/go-shop-backend.git/internal/postgres"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)

	// Repos & services
	orderRepo := &order.Repo{
		DB:                db,
		Locks:             lock.NewRedisManager(rdb),
		Jobs:              jobs.NewScheduler(rdb),
		Redis:             rdb,
		ProducerCreated:   pCreated,
		ProducerCancelled: pCancelled,
		Metrics:           metrics.NewCheckout(cfg.ServiceName),
		Service:           cfg.ServiceName,
		LockTTL:           cfg.SKULockTTL,
		PaymentTimeout:    cfg.PaymentTimeout,
	}
	cartRepo := &cart.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	authSvc := &auth.Service{
		Repo:            &auth.Repo{DB: db},
		Redis:           rdb,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
	}

	router := httpx.NewRouter()
	(&httpx.AuthHandler{Auth: authSvc}).Register(router)
	(&httpx.CatalogHandler{Catalog: catalogRepo}).Register(router)
	router.Group(func(r chi.Router) {
		r.Use(httpx.RequireAuth(authSvc))
		(&httpx.OrdersHandler{Orders: orderRepo}).Register(r)
		(&httpx.CartHandler{Cart: cartRepo}).Register(r)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pCreated.Close() // tutup inbox -> flush & close writer
	pCancelled.Close()
	cancel() // stop producer loop
	pCreated.WaitClosed()
	pCancelled.WaitClosed()
}
