package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CharbelDaher34/stackvec/internal/config"
	"github.com/CharbelDaher34/stackvec/internal/embedding"
	"github.com/CharbelDaher34/stackvec/internal/indexmanager"
	"github.com/CharbelDaher34/stackvec/internal/logging"
	"github.com/CharbelDaher34/stackvec/internal/server"
	"github.com/CharbelDaher34/stackvec/internal/service"
	"github.com/CharbelDaher34/stackvec/internal/store"
	"github.com/CharbelDaher34/stackvec/internal/store/memstore"
	"github.com/CharbelDaher34/stackvec/internal/store/postgres"

	"github.com/rs/zerolog"
)

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println("stackvec dev build")
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)

	libraryStore, documentStore, chunkStore, closeStore, err := buildStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up store")
	}
	if closeStore != nil {
		defer closeStore()
	}

	embedder := buildEmbedder(cfg)

	factories := indexmanager.DefaultFactories(cfg.Index.BallTreeLeafSize)
	enabled := make(map[string]indexmanager.Factory, len(cfg.Index.Enabled))
	for _, name := range cfg.Index.Enabled {
		factory, ok := factories[name]
		if !ok {
			log.Fatal().Str("index", name).Msg("unknown index type in INDEX_TYPES")
		}
		enabled[name] = factory
	}

	indices := indexmanager.New(cfg.Embed.Dimension, embedder, chunkStore, enabled, cfg.Index.RebuildGrowthThreshold, log)

	rebuildCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := indices.RebuildAll(rebuildCtx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("initial index build failed")
	}
	cancel()

	libraries := service.NewLibraryService(libraryStore, indices, log)
	documents := service.NewDocumentService(documentStore, indices, log)
	chunks := service.NewChunkService(chunkStore, documentStore, embedder, indices, log)

	srv := server.New(libraries, documents, chunks, indices, log)

	httpServer := &http.Server{
		Addr:    cfg.Address,
		Handler: srv,
	}

	log.Info().Str("addr", cfg.Address).Str("store", cfg.StoreBackend).Str("embedder", cfg.Embed.Provider).
		Msg("starting server")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	waitForShutdown(httpServer, log)
}

func buildStore(cfg config.Config) (store.LibraryStore, store.DocumentStore, store.ChunkStore, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		pg, err := postgres.New(ctx, cfg.Database.URL, cfg.Database.MaxConnections, cfg.Embed.Dimension)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("connect postgres store: %w", err)
		}
		return pg, pg, pg, pg.Close, nil
	default:
		mem := memstore.New()
		return mem, mem, mem, nil, nil
	}
}

func buildEmbedder(cfg config.Config) embedding.Embedder {
	if cfg.Embed.Provider == "ollama" {
		return embedding.NewOllama(cfg.Ollama.Host, cfg.Embed.Model, cfg.Embed.Dimension, 90*time.Second)
	}
	return embedding.NewDeterministic(cfg.Embed.Dimension)
}

func waitForShutdown(srv *http.Server, log zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed, forcing close")
		if err := srv.Close(); err != nil {
			log.Error().Err(err).Msg("forced close failed")
		}
	}

	log.Info().Msg("server stopped")
}
