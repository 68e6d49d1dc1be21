// Command feedsim is a demonstration harness for the ringbus channel
// layers: it wires a feed source (synthetic ticks, NATS, or Kafka) into one
// of the three channel factories (bare, sync, async) and fans the result
// out to a configurable number of simulated subscribers, exposing
// Prometheus metrics along the way. It has no production purpose; it
// exists to exercise every exported package in this module end to end the
// way the teacher's main.go drove its WebSocket server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/adred-codev/ringbus/asyncring"
	"github.com/adred-codev/ringbus/channel"
	"github.com/adred-codev/ringbus/internal/fanout"
	"github.com/adred-codev/ringbus/internal/seqgen"
	"github.com/adred-codev/ringbus/ring"
	"github.com/adred-codev/ringbus/ringmetrics"
	"github.com/adred-codev/ringbus/syncring"
)

func newLogger(cfg *Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "pretty" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func main() {
	debugFlag := flag.Bool("debug", false, "enable debug logging (overrides LOG_LEVEL)")
	flag.Parse()

	cfg, err := LoadConfig(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *debugFlag {
		cfg.LogLevel = "debug"
	}
	cfg.Print()

	logger := newLogger(cfg)
	cfg.LogConfig(logger)

	// The blank automaxprocs import above already set GOMAXPROCS from the
	// container's CPU quota at init time; this just reports what it picked.
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("runtime configured")

	instanceID := uuid.NewString()
	logger.Info().Str("instance_id", instanceID).Msg("starting feedsim")

	memLimit, err := getMemoryLimit()
	if err != nil {
		logger.Warn().Err(err).Msg("failed to detect cgroup memory limit")
	}
	if memLimit <= 0 {
		memLimit = cfg.MemoryLimit
	}
	cpuLimit := getCPULimit(cfg.CPULimit)
	workerCount := cfg.WorkerPoolSize
	if workerCount <= 0 {
		workerCount = calculateWorkerCount(memLimit, cpuLimit)
	}
	logger.Info().
		Int64("memory_limit_bytes", memLimit).
		Float64("cpu_limit", cpuLimit).
		Int("worker_count", workerCount).
		Msg("sized bare-mode poll pool")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics, err := ringmetrics.New(registry, cfg.ChannelMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register ring metrics")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	httpServer := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server exited unexpectedly")
		}
	}()
	logger.Info().Str("addr", cfg.Addr).Msg("metrics server listening")

	feed, err := buildFeed(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build feed source")
	}

	generator := seqgen.NewGenerator()
	var received atomic.Int64

	publishFn, sampler, shutdown := startChannel(ctx, cfg, workerCount, logger, metrics, &received)

	go metrics.Run(ctx, cfg.MetricsInterval, sampler)

	go func() {
		if err := feed.Run(ctx, func(payload []byte) {
			env := generator.Wrap(cfg.FeedSource, payload)
			err := publishFn(env)
			metrics.ObserveBroadcast(err)
			if err != nil {
				logger.Warn().Err(err).Msg("broadcast failed")
			}
		}); err != nil {
			logger.Error().Err(err).Msg("feed source stopped with error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down feedsim")
	cancel()
	shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown error")
	}

	logger.Info().Int64("items_received_total", received.Load()).Msg("feedsim stopped")
}

// startChannel constructs the (Publisher, Subscriber) pair for the
// configured mode, spins up cfg.SubscriberCount subscribers draining it,
// and returns a publish function, a ringmetrics.Sampler, and a shutdown
// func that closes the publisher and stops any supporting worker pool.
func startChannel(ctx context.Context, cfg *Config, workerCount int, logger zerolog.Logger, metrics *ringmetrics.Metrics, received *atomic.Int64) (publish func(seqgen.Envelope) error, sampler ringmetrics.Sampler, shutdown func()) {
	switch cfg.ChannelMode {
	case "bare":
		pub, sub0, err := channel.Bare[seqgen.Envelope](cfg.ChannelSize)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to construct bare channel")
		}
		pool := fanout.New(workerCount, cfg.WorkerQueueSize, logger)
		pool.Start(ctx)

		spawnSubscribers(cfg.SubscriberCount, sub0, func(id string, s *ring.Subscriber[seqgen.Envelope]) {
			runBareSubscriber(ctx, pool, id, s, logger, metrics, received)
		})

		return pub.Broadcast,
			ringmetrics.Sampler{SubscriberCount: pub.SubscriberCount, Cap: pub.Cap, Wi: pub.Wi, Lag: sub0.Lag},
			func() {
				pub.Close()
				// ctx is cancelled by the caller before shutdown runs; give
				// in-flight poll reschedules a few 1ms backoff intervals to
				// observe that and stop, so none of them calls Submit
				// against a queue Stop is about to close.
				time.Sleep(5 * time.Millisecond)
				pool.Stop()
			}

	case "async":
		pub, sub0, err := channel.Async[seqgen.Envelope](cfg.ChannelSize)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to construct async channel")
		}

		spawnSubscribers(cfg.SubscriberCount, sub0, func(id string, s *asyncring.Subscriber[seqgen.Envelope]) {
			runAsyncSubscriber(ctx, id, s, logger, metrics, received)
		})

		return pub.Send,
			ringmetrics.Sampler{SubscriberCount: pub.SubscriberCount, Cap: pub.Cap, Wi: pub.Wi, Lag: sub0.Lag},
			func() { pub.Close() }

	default: // "sync"
		pub, sub0, err := channel.Sync[seqgen.Envelope](cfg.ChannelSize)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to construct sync channel")
		}

		spawnSubscribers(cfg.SubscriberCount, sub0, func(id string, s *syncring.Subscriber[seqgen.Envelope]) {
			runSyncSubscriber(ctx, id, s, logger, metrics, received)
		})

		return pub.Broadcast,
			ringmetrics.Sampler{SubscriberCount: pub.SubscriberCount, Cap: pub.Cap, Wi: pub.Wi, Lag: sub0.Lag},
			func() { pub.Close() }
	}
}

// cloner is satisfied by every layer's Subscriber type: each exposes
// Clone() returning its own concrete type, so spawnSubscribers is generic
// over it rather than duplicating the "subscriber 0 plus N-1 clones" loop
// three times.
type cloner[S any] interface {
	Clone() S
}

func spawnSubscribers[S cloner[S]](count int, first S, run func(id string, s S)) {
	run(fmt.Sprintf("sub-%04d", 0), first)
	for i := 1; i < count; i++ {
		run(fmt.Sprintf("sub-%04d", i), first.Clone())
	}
}
