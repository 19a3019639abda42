package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/cache"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dashboard"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/dto"
	httpapi "github.com/radieske/odds-band-dashboard/internal/odds-dashboard/http"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/provider"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/pubsub"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/publisher"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/repo"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/view"
	"github.com/radieske/odds-band-dashboard/internal/odds-dashboard/ws"
	sharedcache "github.com/radieske/odds-band-dashboard/internal/shared/cache"
	"github.com/radieske/odds-band-dashboard/internal/shared/config"
	"github.com/radieske/odds-band-dashboard/internal/shared/db"
	"github.com/radieske/odds-band-dashboard/internal/shared/kafka"
	"github.com/radieske/odds-band-dashboard/internal/shared/logger"
	"github.com/radieske/odds-band-dashboard/internal/shared/metrics"
)

// hook é um efeito colateral executado após cada refresh bem-sucedido
type hook struct {
	stage string
	fn    func(ctx context.Context, snap dashboard.Snapshot) error
}

func main() {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	log.Info("starting service",
		zap.Int("sport_keys", len(cfg.Leagues)),
		zap.Float64("range_low", cfg.OddsRangeLow),
		zap.Float64("range_high", cfg.OddsRangeHigh),
		zap.String("fetch_policy", cfg.FetchPolicy),
	)

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Métricas Prometheus
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_band_refreshes_total", Help: "refreshes por resultado"}, []string{"outcome"})
	fetchErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_band_fetch_errors_total", Help: "falhas de coleta por sport key"}, []string{"sport_key"})
	fetchLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "odds_band_fetch_duration_seconds", Help: "latência por sport key", Buckets: prometheus.DefBuckets}, []string{"sport_key"})
	refreshDuration := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "odds_band_refresh_duration_seconds", Help: "duração do ciclo de refresh", Buckets: prometheus.DefBuckets})
	datasetSize := prometheus.NewGauge(prometheus.GaugeOpts{Name: "odds_band_dataset_records", Help: "registros no dataset atual"})
	sideEffectErrors := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "odds_band_side_effect_errors_total", Help: "falhas pós-refresh por estágio"}, []string{"stage"})
	wsSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "odds_band_ws_messages_sent_total", Help: "mensagens WS enviadas"})
	prometheus.MustRegister(refreshes, fetchErrors, fetchLatency, refreshDuration, datasetSize, sideEffectErrors, wsSent)

	leagues := make([]dto.League, len(cfg.Leagues))
	for i, l := range cfg.Leagues {
		leagues[i] = dto.NewLeague(l.Key, l.Name)
	}
	band := dto.OddsRange{Low: cfg.OddsRangeLow, High: cfg.OddsRangeHigh}

	// Cliente do provedor de odds
	fetcher := provider.New(provider.Options{
		BaseURL:     cfg.OddsAPIBaseURL,
		APIKey:      cfg.OddsAPIKey,
		Regions:     cfg.Regions,
		Policy:      provider.Policy(cfg.FetchPolicy),
		Concurrency: cfg.FetchConcurrency,
		Timeout:     cfg.FetchTimeout,
	}, log)
	fetcher.OnRequest = func(sportKey string, err error, took time.Duration) {
		fetchLatency.WithLabelValues(sportKey).Observe(took.Seconds())
		if err != nil {
			fetchErrors.WithLabelValues(sportKey).Inc()
		}
	}

	// Estado inicial da view (valores já validados)
	balance, _ := decimal.NewFromString(cfg.InitialBalance)
	sortKey, _ := view.ParseSortKey(cfg.DefaultSort)

	// Um ciclo pode precisar de várias rodadas de requisições quando há mais ligas que concorrência
	rounds := (len(leagues) + cfg.FetchConcurrency - 1) / cfg.FetchConcurrency
	dash, err := dashboard.New(log, fetcher, dashboard.Options{
		Leagues: leagues,
		Band:    band,
		Timeout: time.Duration(rounds) * cfg.FetchTimeout,
		InitialState: view.State{
			SortKey:         sortKey,
			League:          view.AllLeagues,
			StakePercentage: cfg.DefaultStakePercentage,
			Balance:         balance,
		},
	})
	if err != nil {
		log.Fatal("dashboard init", zap.Error(err))
	}

	hub := ws.NewHub(log, allowOrigin(cfg.CORSAllowedOrigins))
	hub.OnSent = wsSent.Inc

	var (
		hooks   []hook
		checks  []metrics.Check
		history httpapi.History
	)
	broadcast := func(_ context.Context, upd ws.LeagueUpdate) error {
		hub.Broadcast(upd)
		return nil
	}

	// Redis: snapshot do último dataset bom e fan-out entre réplicas
	if cfg.RedisAddr != "" {
		rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rdb.Close()
		log.Info("redis connected")
		checks = append(checks, metrics.Check{Name: "redis", Fn: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }})

		snapshots := cache.NewSnapshotCache(rdb, cfg.SnapshotTTL)
		if snap, ok, err := snapshots.Get(ctx, band); err != nil {
			log.Warn("snapshot restore failed", zap.Error(err))
		} else if ok && dash.Restore(snap) {
			datasetSize.Set(float64(len(snap.Records)))
			log.Info("dataset restored from redis",
				zap.String("refresh_id", snap.RefreshID),
				zap.Int("records", len(snap.Records)),
			)
		} else if ok {
			log.Info("cached snapshot ignored: sport keys changed",
				zap.String("refresh_id", snap.RefreshID),
				zap.Strings("cached_sport_keys", snap.SportKeys),
			)
		}
		hooks = append(hooks, hook{stage: "cache", fn: func(ctx context.Context, snap dashboard.Snapshot) error {
			return snapshots.Set(ctx, band, snap)
		}})

		broadcaster := pubsub.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel)
		pubsub.StartSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)
		broadcast = broadcaster.Publish
	} else {
		log.Info("redis disabled")
	}

	// Postgres: histórico de refreshes
	if cfg.PostgresDSN != "" {
		pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()
		log.Info("postgres connected")
		checks = append(checks, metrics.Check{Name: "postgres", Fn: pg.PingContext})

		historyRepo := repo.NewHistoryRepo(pg)
		history = historyRepo
		hooks = append(hooks, hook{stage: "history", fn: historyRepo.SaveRefresh})
	} else {
		log.Info("postgres disabled")
	}

	// Kafka: evento odds_band_refreshed para consumidores externos
	if cfg.KafkaBrokers != "" {
		brokers := kafka.Brokers(cfg.KafkaBrokers)
		pub := publisher.NewKafkaPublisher(brokers, cfg.TopicOddsBandRefreshed, cfg.ServiceName, log)
		defer pub.Close()
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicOddsBandRefreshed))
		checks = append(checks, metrics.Check{Name: "kafka", Fn: func(ctx context.Context) error { return kafka.Ping(ctx, brokers) }})
		hooks = append(hooks, hook{stage: "kafka", fn: pub.Publish})
	} else {
		log.Info("kafka disabled")
	}

	hooks = append(hooks, hook{stage: "ws", fn: func(ctx context.Context, snap dashboard.Snapshot) error {
		for _, upd := range ws.BuildUpdates(snap.RefreshID, snap.Records) {
			if err := broadcast(ctx, upd); err != nil {
				return err
			}
		}
		return nil
	}})

	dash.OnRefreshed = func(ctx context.Context, snap dashboard.Snapshot) {
		outcome := "success"
		if len(snap.FailedKeys) > 0 {
			outcome = "partial"
		}
		refreshes.WithLabelValues(outcome).Inc()
		refreshDuration.Observe(snap.Took.Seconds())
		datasetSize.Set(float64(len(snap.Records)))

		for _, h := range hooks {
			hctx, hcancel := context.WithTimeout(ctx, 5*time.Second)
			if err := h.fn(hctx, snap); err != nil {
				sideEffectErrors.WithLabelValues(h.stage).Inc()
				log.Warn("refresh side effect failed",
					zap.String("stage", h.stage),
					zap.String("refresh_id", snap.RefreshID),
					zap.Error(err),
				)
			}
			hcancel()
		}
	}
	dash.OnError = func(stage string) { refreshes.WithLabelValues("failed").Inc() }

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(err error) {
		log.Error("metrics server failed", zap.Error(err))
	}, checks...)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	// API pública
	api := &httpapi.API{
		Log:       log,
		Dashboard: dash,
		History:   history,
		WS:        hub.HandleWS,
		Origins:   cfg.CORSAllowedOrigins,
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	// carga inicial
	dash.TriggerRefresh(ctx)

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("odds-dashboard stopped")
}

// allowOrigin aplica a mesma lista do CORS ao upgrade do WebSocket
func allowOrigin(origins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if slices.Contains(origins, "*") {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	}
}
