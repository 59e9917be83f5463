package relay

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap/zapcore"
)

var recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "decoy_log_records_dropped_total",
	Help: "Log records dropped because the relay buffer was full",
})

// DefaultCapacity bounds the relay buffer when no capacity is configured.
const DefaultCapacity = 1024

// Record is a single log event carried from any producer to the
// foreground display.
type Record struct {
	Time    time.Time
	Level   zapcore.Level
	Message string
}

// Relay is a bounded, many-producer single-consumer channel of log
// records. Emit never blocks; when the buffer is full the newest record
// is dropped and counted rather than stalling a request handler.
type Relay struct {
	ch      chan Record
	dropped atomic.Uint64
}

// New creates a relay with the given buffer capacity. Values <= 0 fall
// back to DefaultCapacity.
func New(capacity int) *Relay {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Relay{ch: make(chan Record, capacity)}
}

// Emit queues a record for the foreground consumer. Safe for concurrent
// producers. Never blocks and never fails observably to the caller.
func (r *Relay) Emit(rec Record) {
	if rec.Time.IsZero() {
		rec.Time = time.Now()
	}
	select {
	case r.ch <- rec:
	default:
		r.dropped.Add(1)
		recordsDropped.Inc()
	}
}

// Drain returns all currently pending records without blocking. At most
// one buffer's capacity is returned per call so a hot producer cannot
// pin the consumer; call again to pick up the remainder.
func (r *Relay) Drain() []Record {
	var out []Record
	max := cap(r.ch)
	for i := 0; i < max; i++ {
		select {
		case rec := <-r.ch:
			out = append(out, rec)
		default:
			return out
		}
	}
	return out
}

// Dropped reports how many records have been discarded since startup.
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}
