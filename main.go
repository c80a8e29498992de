// torque.report serves the assembly-line fastening diagnosis engine over
// HTTP. Each batch posted to /api/diagnose runs one carrier's holes through
// signal conditioning, the hard physics gate, and the per-hole statistical
// models, persisting the carrier's model set after every batch.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/torque.report/internal/api"
	"github.com/banshee-data/torque.report/internal/config"
	"github.com/banshee-data/torque.report/internal/features"
	"github.com/banshee-data/torque.report/internal/historydb"
	"github.com/banshee-data/torque.report/internal/modelstore"
	"github.com/banshee-data/torque.report/internal/torque"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "Path to JSON tuning config (optional)")
	modelDir   = flag.String("model-dir", "", "Model snapshot directory (overrides config)")
	historyDB  = flag.String("history-db", "", "SQLite diagnosis history path (overrides config; empty disables)")
)

func main() {
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	dir := cfg.GetModelDir()
	if *modelDir != "" {
		dir = *modelDir
	}
	store, err := modelstore.New(dir, nil)
	if err != nil {
		log.Fatalf("failed to open model store: %v", err)
	}

	dbPath := cfg.GetHistoryDBPath()
	if *historyDB != "" {
		dbPath = *historyDB
	}
	var history *historydb.DB
	if dbPath != "" {
		history, err = historydb.Open(dbPath)
		if err != nil {
			log.Fatalf("failed to open history database: %v", err)
		}
		defer history.Close()
	}

	extractor := features.NewExtractor(cfg.GetSanitizeThreshold(), cfg.GetResampleFrequencyHz())
	var sink torque.HistorySink
	if history != nil {
		sink = history
	}
	session := torque.NewSession(extractor, store, sink, cfg.GetProductionToleranceFactor())

	server := &http.Server{
		Addr:    *listen,
		Handler: api.NewServer(session, history).ServeMux(),
	}

	go func() {
		log.Printf("diagnosis server listening on %s (models in %s)", *listen, dir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if err := session.Flush(); err != nil {
		log.Printf("final flush failed: %v", err)
	}
}
