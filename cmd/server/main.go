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

	"github.com/dd0wney/sclgraph/pkg/api"
	"github.com/dd0wney/sclgraph/pkg/auth"
	"github.com/dd0wney/sclgraph/pkg/config"
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/graphql"
	"github.com/dd0wney/sclgraph/pkg/health"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/treestate"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/pgstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/sparqlhttp"
)

// tokenTTL is the lifetime of JWTs issued with the configured secret.
// The server only validates tokens, so this matters to tooling only.
const tokenTTL = 24 * time.Hour

func main() {
	configPath := flag.String("config", "", "Path to YAML configuration file")
	listen := flag.String("listen", "", "Listen address override (e.g. :8080)")
	backend := flag.String("backend", "", "Store backend override (memory|sparql|postgres)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	// Flag overrides can invalidate a previously valid file.
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logger.Info("sclgraph server starting",
		logging.String("listen", cfg.Listen),
		logging.Backend(cfg.Store.Backend))

	reg := metrics.NewRegistry()

	store, err := openStore(context.Background(), cfg, logger, reg)
	if err != nil {
		logger.Error("Failed to open store", logging.Error(err))
		os.Exit(1)
	}
	defer store.Close()

	voc := schema.NewVocabulary(cfg.Store.Namespace)
	nav := explore.NewNavigator(explore.Config{
		Store:      store,
		Vocabulary: voc,
		Logger:     logger,
		Metrics:    reg,
	})
	eng := listing.NewEngine(listing.Config{
		Store:      store,
		Vocabulary: voc,
		Logger:     logger,
		Metrics:    reg,
	})

	sessions := treestate.NewManager(treestate.ManagerConfig{
		TTL:     cfg.Session.TTL.Std(),
		Logger:  logger,
		Metrics: reg,
	})
	defer sessions.Close()

	exporter, err := buildExporter(context.Background(), cfg, logger, reg)
	if err != nil {
		logger.Error("Failed to configure export sink", logging.Error(err))
		os.Exit(1)
	}

	var jwtManager *auth.JWTManager
	if cfg.Auth.JWTSecret != "" {
		jwtManager, err = auth.NewJWTManager(cfg.Auth.JWTSecret, tokenTTL)
		if err != nil {
			logger.Error("Failed to configure JWT auth", logging.Error(err))
			os.Exit(1)
		}
	}

	hc := health.NewHealthChecker()
	hc.RegisterReadinessCheck("store", health.StoreCheck(cfg.Store.Backend, store.Ping))
	hc.RegisterCheck("schema", health.SchemaCheck(func() int { return len(schema.Kinds()) }))
	hc.RegisterCheck("sessions", health.SessionCheck(sessions.Len))

	gqlSchema, err := graphql.BuildSchema(graphql.Config{Navigator: nav, Listing: eng})
	if err != nil {
		logger.Error("Failed to build GraphQL schema", logging.Error(err))
		os.Exit(1)
	}

	srv := api.NewServer(api.Config{
		Listen:    cfg.Listen,
		Navigator: nav,
		Listing:   eng,
		Sessions:  sessions,
		Exporter:  exporter,
		GraphQL:   graphql.NewHandler(gqlSchema),
		Health:    hc,
		JWT:       jwtManager,
		APIKeys:   auth.NewAPIKeyVerifier(cfg.Auth.APIKeyHashes),
		Logger:    logger,
		Metrics:   reg,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Shutdown error", logging.Error(err))
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited")
}

func openStore(ctx context.Context, cfg config.Config, logger logging.Logger, reg *metrics.Registry) (triplestore.Client, error) {
	switch cfg.Store.Backend {
	case "memory":
		return memstore.NewFixture(), nil
	case "sparql":
		client, err := sparqlhttp.New(ctx, sparqlhttp.Config{
			Endpoint:       cfg.Store.SPARQL.Endpoint,
			Timeout:        cfg.Store.SPARQL.Timeout.Std(),
			MaxConnections: cfg.Store.SPARQL.MaxConnections,
			Username:       cfg.Store.SPARQL.Username,
			Password:       cfg.Store.SPARQL.Password,
			Logger:         logger,
			Metrics:        reg,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "postgres":
		store, err := pgstore.New(ctx, pgstore.Config{
			URL:     cfg.Store.Postgres.URL,
			Logger:  logger,
			Metrics: reg,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// buildExporter wires the configured sink, or none when export is not
// configured.
func buildExporter(ctx context.Context, cfg config.Config, logger logging.Logger, reg *metrics.Registry) (*export.Exporter, error) {
	var sink export.Sink
	switch {
	case cfg.Export.S3.Bucket != "":
		s3Sink, err := export.NewS3Sink(ctx, export.S3Config{
			Bucket:    cfg.Export.S3.Bucket,
			Region:    cfg.Export.S3.Region,
			Prefix:    cfg.Export.S3.Prefix,
			AccessKey: cfg.Export.S3.AccessKey,
			SecretKey: cfg.Export.S3.SecretKey,
		})
		if err != nil {
			return nil, err
		}
		sink = s3Sink
	case cfg.Export.Dir != "":
		dirSink, err := export.NewDirSink(cfg.Export.Dir)
		if err != nil {
			return nil, err
		}
		sink = dirSink
	default:
		return nil, nil
	}
	return export.NewExporter(export.Config{Sink: sink, Logger: logger, Metrics: reg}), nil
}
