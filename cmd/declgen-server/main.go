package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Serafin06/DeclarationGenerator/internal/app"
	"github.com/Serafin06/DeclarationGenerator/internal/catalog"
	"github.com/Serafin06/DeclarationGenerator/internal/config"
	"github.com/Serafin06/DeclarationGenerator/internal/logging"
	"github.com/Serafin06/DeclarationGenerator/internal/server"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("HTTP_ADDR", cfg.HTTPAddr))

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	must(err)
	defer func() { _ = log.Sync() }()

	a, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if _, err := a.Catalog.Load(ctx); err != nil {
		log.Warn("catalog not loaded at startup; requests will retry", zap.Error(err))
	}

	if cfg.CatalogWatch && cfg.CatalogSource == "file" {
		w, err := catalog.NewWatcher(cfg.DataDir, a.Catalog, log.Named("watcher"))
		if err != nil {
			log.Warn("catalog watcher unavailable", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			log.Warn("catalog watcher unavailable", zap.Error(err))
			w.Stop()
		} else {
			defer w.Stop()
		}
	}

	scheduler := cron.New()
	if cfg.CatalogReloadCron != "" {
		_, err := scheduler.AddFunc(cfg.CatalogReloadCron, func() {
			rctx, rcancel := context.WithTimeout(ctx, time.Minute)
			defer rcancel()
			data, err := a.Catalog.Reload(rctx)
			if err != nil {
				log.Error("scheduled catalog reload failed", zap.Error(err))
				return
			}
			log.Info("scheduled catalog reload",
				zap.Uint64("version", a.Catalog.Version()),
				zap.Int("materials", len(data.Materials)),
			)
		})
		if err != nil {
			log.Fatal("invalid CATALOG_RELOAD_CRON", zap.String("spec", cfg.CatalogReloadCron), zap.Error(err))
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(server.Options{
		Service:  a.Service,
		Catalog:  a.Catalog,
		Orders:   a.Orders,
		Registry: reg,
		Logger:   log.Named("http"),
	})
	if err != nil {
		log.Fatal("server setup failed", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
