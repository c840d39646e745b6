package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"rollbook/internal/config"
	"rollbook/internal/queue"
	"rollbook/internal/report"
	"rollbook/internal/store"
)

// Worker consumes ledger events and invalidates cached reports.
func main() {
	cfg := config.Load()
	if cfg.QueueBackend == "memory" {
		log.Fatalf("QUEUE_BACKEND=memory is consumed inside the api process; nothing to do")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, 0)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("warning: redis not reachable at %s, retrying while consuming", cfg.RedisAddr)
	}

	inv, ok := report.NewRedisCache(redisClient.Client, cfg.ReportCacheTTL).(report.Invalidator)
	if !ok {
		log.Fatalf("report cache disabled (REPORT_CACHE_TTL=%s); nothing to invalidate", cfg.ReportCacheTTL)
	}

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	log.Println("worker started, waiting for messages...")
	if err := queue.Run(ctx, q, report.EventHandler(inv)); err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}
	log.Println("worker stopped")
}
