//go:build zmq
// +build zmq

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/sclgraph/pkg/config"
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/rpc"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/pgstore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/sparqlhttp"
)

func main() {
	addr := flag.String("addr", "tcp://127.0.0.1:9401", "Listen address for the REQ/REP endpoint")
	configPath := flag.String("config", "", "Path to YAML configuration file")
	backend := flag.String("backend", "", "Store backend override (memory|sparql|postgres)")
	flag.Parse()

	fmt.Printf("sclgraph - ZeroMQ Query Server\n")
	fmt.Printf("==============================\n\n")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.Logging.Level))

	fmt.Printf("Opening %s store...\n", cfg.Store.Backend)
	store, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	voc := schema.NewVocabulary(cfg.Store.Namespace)
	nav := explore.NewNavigator(explore.Config{Store: store, Vocabulary: voc, Logger: logger})
	eng := listing.NewEngine(listing.Config{Store: store, Vocabulary: voc, Logger: logger})

	fmt.Printf("Starting query server...\n")
	srv := rpc.NewServer(rpc.ServerConfig{
		Addr:      *addr,
		Navigator: nav,
		Listing:   eng,
		Factory:   rpc.NewZMQSocketFactory(),
		Logger:    logger,
	})
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start query server: %v", err)
	}
	defer srv.Stop()

	fmt.Printf("\nZeroMQ query server started!\n")
	fmt.Printf("  Endpoint: %s (REQ/REP)\n", *addr)
	fmt.Printf("  Backend:  %s\n", cfg.Store.Backend)
	fmt.Printf("  Ops:      ping, expand, list\n\n")
	fmt.Printf("Transport: libzmq via pebbe/zmq4 (CGO)\n\n")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Printf("\nShutting down...\n")
}

func openStore(ctx context.Context, cfg config.Config, logger logging.Logger) (triplestore.Client, error) {
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
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case "postgres":
		store, err := pgstore.New(ctx, pgstore.Config{URL: cfg.Store.Postgres.URL, Logger: logger})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
