package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"storefront/internal/config"
	"storefront/internal/events"
	"storefront/internal/http/handlers"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	var logFile *os.File
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			logFile = f
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg)
	stop()
	if err != nil {
		log.Printf("[fatal] %v", err)
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

// run releases everything it opens before returning, including on error.
func run(ctx context.Context, cfg config.Config) error {
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.New()

	// Redis is optional; without it Idempotency-Key headers are ignored.
	var guard services.IdempotencyGuard
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("[warn] redis %s unreachable, checkout idempotency disabled: %v", cfg.RedisAddr, err)
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			guard = repos.NewRedisIdempotency(rdb)
			log.Printf("[redis] idempotency keys -> %s", cfg.RedisAddr)
		}
	}

	deps, err := handlers.NewDeps(db, cfg, m, guard)
	if err != nil {
		return err
	}
	app := handlers.NewApp(deps, handlers.AppConfig{
		TemplatesDir: cfg.TemplatesDir,
		StaticDir:    cfg.StaticDir,
		CORSOrigins:  cfg.CORSOrigins,
		// room for a full set of images plus form fields
		BodyLimit: int(cfg.MaxFileSize)*services.MaxProductImages + 1<<20,
	})

	var pub events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("[kafka] order events -> %v topic=%s", cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer pub.Close()

	relay := events.NewRelay(repos.NewOutboxRepo(db), pub, cfg.OutboxInterval)
	relay.Sent = m.EventsOut.WithLabelValues("sent")
	relay.Failed = m.EventsOut.WithLabelValues("failed")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[http] listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("[http] shutting down")
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}
