// Package main provides the docprep API server entry point
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ragkit/docprep/api"
	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/config"
	"github.com/ragkit/docprep/pkg/embedders"
	"github.com/ragkit/docprep/pkg/logger"
	"github.com/ragkit/docprep/pkg/vectordb"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	logLevel    = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("docprep %s\n", api.Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "docprep: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	log := logger.NewConsoleLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider chunkers.EmbeddingProvider
	if cfg.Embedder.Provider != "" {
		provider, err = embedders.New(&cfg.Embedder)
		if err != nil {
			return err
		}
		log.Info("embedding provider ready", map[string]interface{}{
			"provider":  cfg.Embedder.Provider,
			"model":     cfg.Embedder.Model,
			"dimension": provider.Dimensions(),
		})
	}

	var index *vectordb.QdrantIndex
	if cfg.IndexingEnabled {
		index, err = vectordb.NewQdrantIndex(&cfg.Qdrant)
		if err != nil {
			return err
		}
		if err := index.Connect(ctx); err != nil {
			return err
		}
		defer index.Close()

		if err := index.EnsureCollection(ctx); err != nil {
			return err
		}
		log.Info("vector index ready", map[string]interface{}{
			"collection": cfg.Qdrant.Collection,
			"dimension":  cfg.Qdrant.Dimension,
		})
	}

	server := api.NewServer(cfg, log, provider, index)
	return server.Start(ctx)
}
