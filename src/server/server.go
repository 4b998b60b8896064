package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logger "github.com/sirupsen/logrus"

	"quotefeed/src/cache"
	"quotefeed/src/handler"
	"quotefeed/src/repository"
)

func StartServer(port string) {
	config := GetConfig()

	snapshotRepo := repository.NewSnapshotRepository()
	quoteRepo := repository.NewQuoteRepository()
	instrumentRepo := repository.NewInstrumentRepository()
	responseCache := cache.New(config.ResponseCacheTTL)

	// Router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/healthcheck error")
		}
	})

	r.Route("/api/quotes", func(r chi.Router) {
		r.Get("/latest", handler.GetLatestHandler(snapshotRepo, instrumentRepo, responseCache))
		r.Get("/{key}/history", handler.GetHistoryHandler(quoteRepo, instrumentRepo, responseCache))
	})

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
