// Command kaia-mockapi serves an in-memory copy of the investment API for
// local development of clients.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/metrics"
	"github.com/kaia-invest/kaia-core/internal/mockapi"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	envFile := flag.String("env", "", "path to a .env file (default .env)")
	seed := flag.Bool("seed", true, "load sample projects, investors and investments")
	rps := flag.Float64("rate-limit", 0, "requests per second per client, 0 disables")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		logging.NewDefault("kaia-mockapi").WithError(err).Fatal("failed to load configuration")
	}
	log := logging.New("kaia-mockapi", cfg.Log.Level, cfg.Log.Format)

	api, err := mockapi.New(mockapi.Config{
		JWTSecret:  cfg.MockAPI.JWTSecret,
		RateLimit:  *rps,
		Burst:      int(*rps) + 1,
		SampleData: *seed,
		Logger:     log,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to create mock api")
	}

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.PathPrefix("/").Handler(metrics.InstrumentHandler(api))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.MockAPI.Origins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         cfg.MockAPI.Addr,
		Handler:      c.Handler(router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("mock api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("mock api stopped")
}
