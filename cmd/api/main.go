package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rollbook/internal/attendance"
	"rollbook/internal/auth"
	"rollbook/internal/config"
	"rollbook/internal/handler"
	"rollbook/internal/httpmiddleware"
	"rollbook/internal/queue"
	"rollbook/internal/report"
	"rollbook/internal/roster"
	"rollbook/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.NewDB(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db.Client); err != nil {
			return err
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, 0)
	defer redisClient.Close()
	cacheClient := redisClient.Client
	if !redisClient.Healthy(ctx) {
		log.Printf("warning: redis not reachable at %s, caches disabled", cfg.RedisAddr)
		cacheClient = nil
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(256)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	}

	people := roster.NewCached(roster.NewPostgres(db.Client), cacheClient, cfg.RosterCacheTTL)
	ledger := attendance.NewRepository(db.Client)
	reportCache := report.NewRedisCache(cacheClient, cfg.ReportCacheTTL)
	inv, _ := reportCache.(report.Invalidator)
	svc := attendance.NewService(ledger, people, attendance.Options{
		Location:    cfg.Location,
		Events:      q,
		Invalidator: inv,
	})
	reports := report.NewGenerator(ledger, people, report.Options{
		Location:      cfg.Location,
		HonorSchedule: cfg.HonorSchedule,
		MaxDays:       cfg.MaxReportDays,
		Cache:         reportCache,
	})

	// The in-memory queue has no other reader, so drain it here.
	if cfg.QueueBackend == "memory" && inv != nil {
		go func() {
			if err := queue.Run(ctx, q, report.EventHandler(inv)); err != nil {
				log.Printf("in-process consumer stopped: %v", err)
			}
		}()
	}

	var limiter httpmiddleware.Limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	if cfg.RateLimitBackend == "redis" && cacheClient != nil {
		limiter = httpmiddleware.NewRedisWindow(cacheClient, cfg.RateLimitPerMin)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	r.Use(httpmiddleware.SecurityHeaders())
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	v1 := r.Group("/v1",
		httpmiddleware.Timeout(cfg.RequestTimeout),
		auth.Required(cfg.JWTSigningKey, cfg.JWTIssuer),
	)
	handler.New(svc, reports).Register(v1)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s (tz %s)", cfg.HTTPPort, cfg.Location)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}
