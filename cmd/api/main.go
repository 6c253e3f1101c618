package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"comicapi/internal/config"
	"comicapi/internal/http/server"
	"comicapi/internal/imagegen"
	"comicapi/internal/logging"
	"comicapi/internal/otel"
	"comicapi/internal/service"
	"comicapi/internal/storage"
)

// @title AI Comic Image Generator
// @version 1.0.0
// @description Generate comic-style panels using OpenAI's image model.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	log := logging.New(os.Stdout, loc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Error("tracing_init_failed", err, nil)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	store, err := storage.NewLocal(cfg.Storage.BaseDir, cfg.Storage.GeneratedDir)
	if err != nil {
		log.Error("storage_init_failed", err, nil)
		os.Exit(1)
	}

	// A missing API key keeps the service up; /generate then answers with a configuration error.
	var gen imagegen.Generator
	if g, err := imagegen.NewOpenAI(cfg.OpenAI); err != nil {
		log.Warn("image_generator_disabled", map[string]any{"reason": err.Error()})
	} else {
		gen = g
	}

	imgSvc := service.NewImageService(gen, store, cfg.Storage.ListLimit)

	var reg *prometheus.Registry
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	app, err := server.New(server.Options{
		Service:   imgSvc,
		Log:       log,
		AccessLog: os.Stdout,
		Location:  loc,
		Registry:  reg,
	})
	if err != nil {
		log.Error("server_init_failed", err, nil)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		log.Info("server_stopping", nil)
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", map[string]any{
		"addr":                 addr,
		"generated_dir":        store.Dir(),
		"generation_available": gen != nil,
	})
	if err := app.Listen(addr); err != nil {
		log.Error("server_failed", err, nil)
		os.Exit(1)
	}
}
