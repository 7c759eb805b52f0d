package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/ticket-registry/internal/config"
	"github.com/iliyamo/ticket-registry/internal/database"
	"github.com/iliyamo/ticket-registry/internal/handler"
	"github.com/iliyamo/ticket-registry/internal/middleware"
	"github.com/iliyamo/ticket-registry/internal/queue"
	"github.com/iliyamo/ticket-registry/internal/registry"
	"github.com/iliyamo/ticket-registry/internal/repository"
	"github.com/iliyamo/ticket-registry/internal/router"
	"github.com/iliyamo/ticket-registry/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := registry.NewEventLog()
	opts := []registry.Option{registry.WithSink(events)}

	var db *sql.DB
	if cfg.Store == config.StoreMySQL {
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("connect to db: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("apply migrations: %v", err)
		}
		opts = append(opts, registry.WithStore(repository.NewTicketRepo(db)))
	}

	if cfg.PublishEnabled {
		pub := service.NewPublisher(cfg.RabbitURL, cfg.PublishBuffer)
		opts = append(opts, registry.WithSink(pub))
		go func() {
			if err := pub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("ticket-publisher: stopped: %v", err)
			}
		}()
	}
	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartTicketConsumer(ctx, cfg.RabbitURL, cfg.ConsumerLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("ticket-consumer: stopped: %v", err)
			}
		}()
	}

	reg, err := registry.New(ctx, cfg.Registry, opts...)
	if err != nil {
		log.Fatalf("open registry: %v", err)
	}
	info := reg.Info()
	log.Printf("registry %q (%s) admin=%s supply=%d", info.Name, info.Symbol, info.Admin, info.TotalSupply)
	if _, ok := cfg.Operators[info.Admin]; !ok {
		log.Printf("no OPERATORS entry for admin %s, minting over HTTP is unavailable", info.Admin)
	}

	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), nil)
	if rdb := config.NewRedisClient(config.LoadRedisConfig()); rdb != nil {
		defer rdb.Close()
		limit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	} else {
		log.Printf("redis unavailable, rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover(), echomw.RequestID())

	var pinger handler.Pinger
	if db != nil {
		pinger = db
	}
	h := handler.NewRegistryHandler(reg, events)
	router.RegisterRoutes(e, handler.Health(pinger))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg.JWTSecret, cfg.AccessTTLMin, cfg.Operators), limit)
	router.RegisterPublic(e, h)
	router.RegisterRegistry(e, h, cfg.JWTSecret, limit)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.Store)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
