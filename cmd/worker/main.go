package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-backend.git/internal/config"
	"github.com/ariefcatur/go-shop-backend.git/internal/jobs"
	kafkax "github.com/ariefcatur/go-shop-backend.git/internal/kafka"
	"github.com/ariefcatur/go-shop-backend.git/internal/order"
	"github.com/ariefcatur/go-shop-backend.git/internal/postgres"
	"github.com/ariefcatur/go-shop-backend.git/internal/redisx"
	"github.com/joho/godotenv"
)

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

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: order.cancelled (job pembatalan publish ke sini)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, order.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)

	sched := jobs.NewScheduler(rdb)
	repo := &order.Repo{
		DB:                db,
		Jobs:              sched,
		Redis:             rdb,
		ProducerCancelled: pCancelled,
		Service:           cfg.ServiceName + "-worker",
		PaymentTimeout:    cfg.PaymentTimeout,
	}

	// Poller buat cancel-payment jobs
	worker := &jobs.Worker{
		Scheduler: sched,
		Orders:    repo,
		Interval:  cfg.JobPollInterval,
	}
	go func() {
		log.Printf("job worker started: interval=%s", cfg.JobPollInterval)
		worker.Run(ctx)
	}()

	// Consumer payment.paid
	pc := &order.PaymentConsumer{Repo: repo, Redis: rdb, ServiceName: cfg.ServiceName + "-worker"}
	group := getenv("PAYMENT_GROUP", "payment-svc")
	workers := mustAtoi(os.Getenv("PAYMENT_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, order.TopicPaymentPaid, workers)

	go func() {
		log.Printf("payment consumer started: group=%s topic=%s workers=%d", group, order.TopicPaymentPaid, workers)
		if err := cons.Start(ctx, pc.HandlePaymentPaid); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down worker...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pCancelled.Close()
	pCancelled.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
