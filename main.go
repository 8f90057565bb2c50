package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"tripsheet/config"
	"tripsheet/db"
	"tripsheet/itinerary"
	"tripsheet/middleware"
	"tripsheet/mq"
	"tripsheet/ratelim"
	"tripsheet/rdx"
	"tripsheet/render"
	"tripsheet/routes"
	"tripsheet/utils"
	"tripsheet/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	log := logrus.NewEntry(logger)

	ctx := context.Background()

	repo, err := db.Open(ctx, cfg.Store, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}

	renderer, err := render.NewPDF(render.OptionsFromConfig(cfg.Render))
	if err != nil {
		log.WithError(err).Fatal("load pdf assets")
	}

	deps := workflow.Deps{
		Repo:       repo,
		Renderer:   renderer,
		Log:        log,
		ConfirmTTL: cfg.Workflow.ConfirmTTL,
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = rdx.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("connect redis")
		}
		deps.Events = mq.NewEmitter(rdb, cfg.Redis.EventsChannel, log)
		deps.Confirmations = rdx.NewConfirmations(rdb)
		log.WithField("addr", cfg.Redis.Addr).Info("redis enabled for events and delete confirmations")
	}

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst)
	router := httprouter.New()
	routes.RoutesWrapper(router, itinerary.NewHandlers(deps), rateLimiter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.Origins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "Location"},
	}).Handler(router)

	handler := middleware.Chain(corsHandler,
		middleware.Recover(log),
		middleware.Logger(log),
		middleware.SecurityHeaders,
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		if err := repo.Close(context.Background()); err != nil {
			log.WithError(err).Warn("close store")
		}
		if rdb != nil {
			_ = rdb.Close()
		}
	})

	go func() {
		log.WithFields(logrus.Fields{"addr": server.Addr, "store": cfg.Store.Backend}).Info("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("graceful shutdown failed")
	}
	log.Info("server stopped")
}
