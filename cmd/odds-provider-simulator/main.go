package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/odds-band-dashboard/internal/shared/config"
	"github.com/radieske/odds-band-dashboard/internal/shared/logger"
	"github.com/radieske/odds-band-dashboard/internal/shared/metrics"
	"github.com/radieske/odds-band-dashboard/internal/simulator"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Métricas Prometheus para monitoramento das requisições servidas
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "provider_sim_requests_total",
		Help: "Requisições de odds por sport key e status",
	}, []string{"sport_key", "status"})
	prometheus.MustRegister(requests)

	sim := simulator.New(simulator.Options{
		APIKey:      cfg.OddsAPIKey,
		FailureRate: simulator.FailureRateFromEnv(),
		Seed:        time.Now().UnixNano(),
	}, log)
	sim.OnRequest = func(sportKey string, status int) {
		requests.WithLabelValues(sportKey, fmt.Sprint(status)).Inc()
	}

	// Servidor de métricas em goroutine
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(err error) {
		log.Fatal("metrics server error", zap.Error(err))
	})
	log.Info("odds provider simulator (metrics) running",
		zap.String("addr", metricsSrv.Addr),
		zap.String("paths", "/healthz,/metrics"),
	)

	// Servidor público (API compatível com /v4/sports/{sport}/odds)
	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("odds provider simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/v4/sports,/v4/sports/{sport}/odds"),
	)
	srv := &http.Server{Addr: publicAddr, Handler: sim.Router(), ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("public server error", zap.Error(err))
	}
}
