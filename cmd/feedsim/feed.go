package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/time/rate"
)

// Feed is an external collaborator that hands raw payload bytes to emit
// until ctx is cancelled. It never touches the ring directly: main.go wraps
// each payload in a seqgen.Envelope and routes it into whichever channel
// layer the configured mode selected, keeping the feed sources ignorant of
// bare/sync/async.
type Feed interface {
	Run(ctx context.Context, emit func(payload []byte)) error
}

// tick is the synthetic payload shape: a toy market-data snapshot.
type tick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
}

var syntheticSymbols = []string{"BTC-USD", "ETH-USD", "SOL-USD", "DOGE-USD", "XRP-USD"}

// SyntheticFeed generates toy market-data ticks at a configured rate. It
// exists so feedsim runs end to end with no external dependency: the
// publish path is real, only the source is fabricated.
type SyntheticFeed struct {
	RatePerSecond int
	logger        zerolog.Logger
}

// NewSyntheticFeed returns a feed that emits ratePerSecond ticks per second,
// rate-limited with golang.org/x/time/rate rather than a bare ticker so
// bursts stay smooth even if the caller's loop is occasionally delayed.
func NewSyntheticFeed(ratePerSecond int, logger zerolog.Logger) *SyntheticFeed {
	return &SyntheticFeed{RatePerSecond: ratePerSecond, logger: logger}
}

func (f *SyntheticFeed) Run(ctx context.Context, emit func(payload []byte)) error {
	if f.RatePerSecond <= 0 {
		<-ctx.Done()
		return nil
	}

	limiter := rate.NewLimiter(rate.Limit(f.RatePerSecond), f.RatePerSecond)
	rng := rand.New(rand.NewSource(1))
	prices := make(map[string]float64, len(syntheticSymbols))
	for _, s := range syntheticSymbols {
		prices[s] = 100 + rng.Float64()*900
	}

	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil // context cancelled
		}

		symbol := syntheticSymbols[rng.Intn(len(syntheticSymbols))]
		prices[symbol] += (rng.Float64() - 0.5) * prices[symbol] * 0.002

		payload, err := json.Marshal(tick{
			Symbol: symbol,
			Price:  prices[symbol],
			Volume: rng.Int63n(10_000),
		})
		if err != nil {
			f.logger.Error().Err(err).Msg("failed to marshal synthetic tick")
			continue
		}
		emit(payload)
	}
}

// NATSFeed forwards every message on a subject into the ring, adapted from
// the teacher's pkg/nats client (connect/reconnect handlers, structured
// logging on state transitions) but stripped to the one thing feedsim
// needs: "give me the bytes".
type NATSFeed struct {
	URL     string
	Subject string
	logger  zerolog.Logger
}

func NewNATSFeed(url, subject string, logger zerolog.Logger) *NATSFeed {
	return &NATSFeed{URL: url, Subject: subject, logger: logger}
}

func (f *NATSFeed) Run(ctx context.Context, emit func(payload []byte)) error {
	conn, err := nats.Connect(f.URL,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				f.logger.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			f.logger.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			f.logger.Error().Err(err).Msg("nats error")
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer conn.Close()

	sub, err := conn.Subscribe(f.Subject, func(msg *nats.Msg) {
		emit(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	f.logger.Info().Str("subject", f.Subject).Msg("nats feed subscribed")
	<-ctx.Done()
	return nil
}

// KafkaFeed consumes records from one or more topics via franz-go and
// forwards their raw values, adapted from the teacher's kafka/consumer.go
// (franz-go client options, partition-assignment logging) whose original
// binary built but never wired it into anything live.
type KafkaFeed struct {
	Brokers []string
	Topics  []string
	Group   string
	logger  zerolog.Logger
}

func NewKafkaFeed(brokers, topics []string, group string, logger zerolog.Logger) *KafkaFeed {
	return &KafkaFeed{Brokers: brokers, Topics: topics, Group: group, logger: logger}
}

func (f *KafkaFeed) Run(ctx context.Context, emit func(payload []byte)) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(f.Brokers...),
		kgo.ConsumerGroup(f.Group),
		kgo.ConsumeTopics(f.Topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
		kgo.FetchMaxWait(500*time.Millisecond),
		kgo.OnPartitionsAssigned(func(_ context.Context, _ *kgo.Client, assigned map[string][]int32) {
			f.logger.Info().Interface("partitions", assigned).Msg("kafka partitions assigned")
		}),
		kgo.OnPartitionsRevoked(func(_ context.Context, _ *kgo.Client, revoked map[string][]int32) {
			f.logger.Info().Interface("partitions", revoked).Msg("kafka partitions revoked")
		}),
	)
	if err != nil {
		return fmt.Errorf("kafka client: %w", err)
	}
	defer client.Close()

	for {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil {
			return nil
		}
		for _, err := range fetches.Errors() {
			f.logger.Error().Err(err.Err).Str("topic", err.Topic).Msg("kafka fetch error")
		}
		fetches.EachRecord(func(record *kgo.Record) {
			emit(record.Value)
		})
	}
}

// buildFeed selects and constructs the configured Feed.
func buildFeed(cfg *Config, logger zerolog.Logger) (Feed, error) {
	switch cfg.FeedSource {
	case "synthetic":
		return NewSyntheticFeed(cfg.SyntheticRate, logger), nil
	case "nats":
		return NewNATSFeed(cfg.NATSURL, cfg.NATSSubject, logger), nil
	case "kafka":
		return NewKafkaFeed(splitCSV(cfg.KafkaBrokers), splitCSV(cfg.KafkaTopics), cfg.KafkaConsumerGroup, logger), nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.FeedSource)
	}
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
