package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/api/middleware"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/api/rest"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/api/websocket"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/config"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/k8s"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/graphcache"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/logger"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/tracing"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/reconcile"
	"github.com/PrasadTelasula/kaptivan-sub002/internal/repository"
	"github.com/PrasadTelasula/kaptivan-sub002/migrations"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	log.Info("starting topology backend", "port", cfg.Port, "cluster", cfg.ClusterName)

	shutdownTracing, err := tracing.Init("kaptivan-backend", cfg.OTLPEndpoint, cfg.OTLPProtocol, 1.0)
	if err != nil {
		log.Error("tracing init failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing()

	// History store
	var repo repository.HistoryRepository
	switch cfg.DatabaseDriver {
	case "postgres":
		pg, err := repository.NewPostgresRepository(cfg.DatabaseDSN)
		if err != nil {
			log.Error("postgres init failed", "error", err)
			os.Exit(1)
		}
		if err := pg.RunMigrations(migrations.FS); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		repo = pg
	default:
		sq, err := repository.NewSQLiteRepository(cfg.DatabasePath)
		if err != nil {
			log.Error("sqlite init failed", "error", err)
			os.Exit(1)
		}
		if err := sq.RunMigrations(migrations.FS); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		repo = sq
	}
	defer repo.Close()

	// Cluster access
	client, err := k8s.NewClient(cfg.KubeconfigPath, cfg.KubeContext)
	if err != nil {
		log.Error("kubernetes client init failed", "error", err)
		os.Exit(1)
	}
	if cfg.K8sTimeoutSec > 0 {
		client.SetTimeout(time.Duration(cfg.K8sTimeoutSec) * time.Second)
	}
	if cfg.K8sRateLimitPerSec > 0 {
		client.SetLimiter(rate.NewLimiter(rate.Limit(cfg.K8sRateLimitPerSec), cfg.K8sRateLimitBurst))
	}
	if err := client.TestConnection(ctx); err != nil {
		log.Warn("cluster not reachable at startup", "error", err)
	}
	collector := k8s.NewCollector(client)

	// Graph cache, invalidated on any relevant cluster change.
	cache := graphcache.New(time.Duration(cfg.GraphCacheTTLSec) * time.Second)

	// WebSocket hub; subscribers get the full current state on subscribe and
	// refresh, then incremental change batches.
	refresher := func(ctx context.Context, sub websocket.Subscription) (models.TopologyUpdate, error) {
		snap, err := collector.Snapshot(ctx, sub.Namespace, sub.Kind, sub.Name)
		if err != nil {
			return models.TopologyUpdate{}, err
		}
		changes, err := reconcile.SnapshotChanges(snap)
		if err != nil {
			return models.TopologyUpdate{}, err
		}
		return models.TopologyUpdate{Changes: changes, Timestamp: time.Now().UTC()}, nil
	}
	hub := websocket.NewHub(ctx, log, refresher)
	go hub.Run()

	// Informers feed the hub and invalidate the graph cache.
	informers := k8s.NewInformerManager(client)
	k8s.NewWatcher(informers, log, func(change models.ResourceChange) {
		if change.Namespace == "" {
			cache.InvalidateAll()
		} else {
			cache.InvalidateNamespace(change.Namespace)
		}
		hub.Publish(change)
	})
	if err := informers.Start(); err != nil {
		log.Error("informer start failed", "error", err)
		os.Exit(1)
	}

	// HTTP
	router := mux.NewRouter()

	healthz := rest.NewHealthzHandler(repo)
	router.HandleFunc("/healthz/live", healthz.Live).Methods("GET")
	router.HandleFunc("/healthz/ready", healthz.Ready).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	handler := rest.NewHandler(collector, client, cache, repo, cfg.ClusterName, cfg.HistoryLimit, log)
	rest.SetupRoutes(apiRouter, handler)

	wsHandler := websocket.NewHandler(ctx, hub, log, cfg.AllowedOrigins)
	router.HandleFunc("/api/v1/ws", wsHandler.ServeWS).Methods("GET")

	router.Use(middleware.RequestID)
	router.Use(middleware.Tracing)
	router.Use(middleware.StructuredLog)
	router.Use(middleware.Recovery)
	router.Use(middleware.SecureHeaders)
	router.Use(middleware.RateLimit())
	router.Use(middleware.MaxBodySize(middleware.DefaultMaxBodyBytes, middleware.DefaultHistoryMaxBodyBytes))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(router),
		ReadTimeout:  time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	informers.Stop()
	hub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", "error", err)
	}
	log.Info("stopped")
}
