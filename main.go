package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"solflow/cache"
	"solflow/config"
	"solflow/dashboard"
	"solflow/dispatcher"
	"solflow/normalizer"
	"solflow/realtime"
	"solflow/source"
	"solflow/store"
	"solflow/trade"
	"solflow/writer"
)

func main() {
	cfg := config.LoadFromEnv()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer db.Close()

	if err := store.RunMigrations(db, cfg.SQLDir); err != nil {
		log.Fatalf("❌ %v", err)
	}

	w := writer.New(db, writer.Config{
		QueueCapacity: cfg.WriteQueueCapacity,
		BatchSize:     cfg.FlushBatchSize,
		FlushInterval: cfg.FlushInterval,
	})
	w.Start()
	log.Println("✅ write pipeline started")

	var redisClient *cache.RedisClient
	if cfg.RedisHost != "" {
		redisClient = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	}
	metricsMirror := cache.NewMetricsMirror(redisClient)

	broker := realtime.NewBroker()
	go broker.Run()

	if cfg.WSAddr != "" {
		dashSrv := dashboard.NewServer(broker)
		mux := http.NewServeMux()
		mux.HandleFunc("/ws/signals", dashSrv.ServeHTTP)
		mux.HandleFunc("/sse/signals", broker.ServeHTTP)
		go func() {
			log.Printf("🔌 dashboard transport listening on %s", cfg.WSAddr)
			if err := http.ListenAndServe(cfg.WSAddr, mux); err != nil {
				log.Printf("⚠️  dashboard transport stopped: %v", err)
			}
		}()
	}

	registry := normalizer.NewDefaultRegistry()
	signatures := newSignatureSet(cfg.SignatureCacheLimit)

	metricsHook := func(m trade.Metrics) {
		metricsMirror.Publish(m)
		broker.Broadcast("metrics", m)
	}
	d := dispatcher.New(registry, w.Queue(), signatures, metricsHook)
	d.OnSignal(broker.BroadcastSignal)

	feed := source.NewStubFeed(cfg.GeyserURL, cfg.XToken)

	ctx, cancel := context.WithCancel(context.Background())
	go consume(ctx, feed, d)

	log.Println("🚀 solflow running (Ctrl+C to stop)")
	shutdown(cancel, feed, w, redisClient)
}

// newSignatureSet picks the bounded or unbounded dedup set per
// SOLFLOW_SIGNATURE_CACHE_LIMIT (0 keeps spec.md §9's default unbounded
// behavior).
func newSignatureSet(limit int) dispatcher.SignatureSet {
	if limit > 0 {
		return dispatcher.NewBoundedSignatureSet(limit)
	}
	return dispatcher.NewUnboundedSignatureSet()
}

func consume(ctx context.Context, feed source.Feed, d *dispatcher.Dispatcher) {
	instructions := feed.Instructions()
	for {
		select {
		case <-ctx.Done():
			return
		case tuple, ok := <-instructions:
			if !ok {
				return
			}
			d.Process(tuple)
		}
	}
}

func shutdown(cancel context.CancelFunc, feed source.Feed, w *writer.Writer, redisClient *cache.RedisClient) {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	log.Println("🛑 shutdown signal received, draining in-flight work")
	cancel()
	if err := feed.Close(); err != nil {
		log.Printf("⚠️  feed close: %v", err)
	}
	w.Close()
	if err := redisClient.Close(); err != nil {
		log.Printf("⚠️  redis close: %v", err)
	}
	log.Println("✅ shutdown complete")
}
