// Package seqgen tags feed items with a per-source, monotonically
// increasing sequence number and a send timestamp before they're handed to
// a ring publisher — the same per-connection sequencing idiom the demo's
// predecessor used for gap detection, generalized from "per WebSocket
// connection" to "per feed source".
package seqgen

import (
	"encoding/json"
	"sync/atomic"
	"time"
)

// Envelope wraps a raw feed payload with delivery metadata a subscriber can
// use to detect gaps (via Seq) or measure latency (via Timestamp).
type Envelope struct {
	// Seq is monotonically increasing per Generator, starting at 1.
	Seq int64 `json:"seq"`
	// Timestamp is the Unix millisecond time the envelope was created.
	Timestamp int64 `json:"ts"`
	// Source names the feed this item came from (e.g. "nats", "kafka",
	// "synthetic").
	Source string `json:"source"`
	// Data is the raw payload, stored undecoded to avoid a double
	// encode/decode round trip.
	Data json.RawMessage `json:"data"`
}

// Generator produces sequence numbers for one feed source. Safe for
// concurrent use.
type Generator struct {
	counter atomic.Int64
}

// NewGenerator returns a Generator whose first Next() call returns 1.
func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next sequence number.
func (g *Generator) Next() int64 {
	return g.counter.Add(1)
}

// Current returns the most recently issued sequence number without
// advancing it.
func (g *Generator) Current() int64 {
	return g.counter.Load()
}

// Wrap builds an Envelope around data, stamping it with the next sequence
// number from g and the current time.
func (g *Generator) Wrap(source string, data []byte) Envelope {
	return Envelope{
		Seq:       g.Next(),
		Timestamp: time.Now().UnixMilli(),
		Source:    source,
		Data:      json.RawMessage(data),
	}
}
