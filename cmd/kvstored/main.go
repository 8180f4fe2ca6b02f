package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/kvschema/internal/config"
	"github.com/S0me0neR0man/kvschema/internal/memstore"
	"github.com/S0me0neR0man/kvschema/internal/metrics"
	"github.com/S0me0neR0man/kvschema/internal/server"
)

func main() {
	conf, err := config.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	var logger *zap.Logger
	if conf.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync() //nolint:errcheck
	sugar := logger.Sugar()

	store := memstore.New(logger)
	if conf.StoreFile != "" {
		// restore the last snapshot
		if err := store.LoadSeedFile(conf.StoreFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			sugar.Fatalw("restore", "file", conf.StoreFile, "error", err)
		}
	}
	if conf.SeedFile != "" {
		if err := store.LoadSeedFile(conf.SeedFile); err != nil {
			sugar.Fatalw("seed", "file", conf.SeedFile, "error", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		sugar.Fatalw("metrics", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	gs := server.NewStorageServer(store, conf, m, logger)

	var wg sync.WaitGroup
	if conf.HTTPListen != "" {
		hs := server.NewHTTPServer(store, conf, m, reg, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := hs.Start(ctx); err != nil {
				sugar.Errorw("httpserver", "error", err)
				stop()
			}
		}()
	}

	if err := gs.Start(ctx); err != nil {
		sugar.Errorw("grpcserver", "error", err)
		stop()
	}

	gs.Wait()
	wg.Wait()
}
