package server

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"github.com/dehimb/wheel/internal/game"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// NewHandler builds the API router over engine. gatherer may be nil to
// leave /metrics out.
func NewHandler(engine *game.Engine, logger *logrus.Logger, gatherer prometheus.Gatherer) http.Handler {
	h := &handler{
		router:   mux.NewRouter(),
		engine:   engine,
		logger:   logger,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		gatherer: gatherer,
	}
	h.initRouter(&middleware{logger: logger})
	return h
}

// Start serves the API on addr until ctx is done.
func Start(ctx context.Context, addr string, handler http.Handler, logger *logrus.Logger) {
	s := &http.Server{
		Addr:         addr,
		Handler:      handler,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}

	go func() {
		err := s.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Error starting server", err)
		}
	}()

	logger.Infof("Server started on %s", addr)

	waitForShutdown(ctx, s, logger)
	logger.Info("Exiting...")
}

func waitForShutdown(ctx context.Context, s *http.Server, logger *logrus.Logger) {
	<-ctx.Done()
	logger.Info("Trying graceful shutdown server")

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctxShutDown); err != nil {
		logger.Errorf("Server shutdown failed: %s", err)
		return
	}
	logger.Info("Server stopped")
}
