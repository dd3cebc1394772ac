// Package poll samples terminal input and a fixed-interval timer, delivering
// ordered batches of logical events over an unbounded channel.
//
// Two goroutines run per source: a reader blocked in PollEvent, and a sampler
// that groups whatever input arrived during one poll slice into a Batch. When no
// input was sent for a full tick interval the sampler emits a [Tick] batch so the
// consumer can refresh without input.
//
// Known limitation: the source runs for the lifetime of the process. Cancelling
// ctx stops the sampler at its next cycle but leaves the channel open, so the
// consumer never confuses cancellation with a disconnect; the reader stays parked
// in PollEvent until the device is finalized.
package poll

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/core"
	"github.com/lixenwraith/termloop/event"
	"github.com/lixenwraith/termloop/queue"
)

const (
	// DefaultPollInterval bounds how long the sampler waits for the first input of a batch
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultTickInterval is the maximum quiet period before a Tick is emitted
	DefaultTickInterval = 2 * time.Second

	// inputBufferSize is the reader to sampler hand-off; the reader blocks, never drops
	inputBufferSize = 256
)

// InputReader is the blocking input device, satisfied by tcell.Screen
// PollEvent returns nil once the device is closed
type InputReader interface {
	PollEvent() tcell.Event
}

// Config holds sampling intervals
type Config struct {
	PollInterval time.Duration
	TickInterval time.Duration
}

// DefaultConfig returns the default sampling intervals
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
		TickInterval: DefaultTickInterval,
	}
}

// withDefaults replaces non-positive intervals
func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c
}

// Start spawns the reader and sampler goroutines and returns the batch channel
// The channel is closed only if the input device closes (producer terminated)
func Start(ctx context.Context, reader InputReader, cfg Config) <-chan event.Batch {
	cfg = cfg.withDefaults()

	inputs := make(chan tcell.Event, inputBufferSize)
	out := queue.NewUnbounded[event.Batch]()

	core.Go(func() { readInput(reader, inputs) })
	core.Go(func() { sample(ctx, inputs, out, cfg) })

	return out.Out()
}

// readInput forwards device events until PollEvent reports closure
func readInput(reader InputReader, inputs chan<- tcell.Event) {
	defer close(inputs)

	for {
		ev := reader.PollEvent()
		if ev == nil {
			log.WithField("component", "poll").Debug("input device closed")
			return
		}
		inputs <- ev
	}
}

// sample runs the batching cycle
func sample(ctx context.Context, inputs <-chan tcell.Event, out *queue.Unbounded[event.Batch], cfg Config) {
	logger := log.WithField("component", "poll")

	timer := time.NewTimer(cfg.PollInterval)
	defer timer.Stop()

	lastSend := time.Now()

	for {
		var batch event.Batch
		closed := false

		timer.Reset(cfg.PollInterval)

		select {
		case <-ctx.Done():
			logger.Debug("sampler cancelled")
			return

		case ev, ok := <-inputs:
			if !ok {
				closed = true
				break
			}
			batch = append(batch, event.Input(ev))
			batch, closed = drainPending(inputs, batch)

		case <-timer.C:
		}

		switch {
		case len(batch) > 0:
			out.Send(batch)
			lastSend = time.Now()
		case !closed && time.Since(lastSend) >= cfg.TickInterval:
			out.Send(event.Batch{event.Tick()})
			lastSend = time.Now()
		}

		if closed {
			// Producer terminated: consumer sees every batch, then the disconnect
			out.Close()
			return
		}
	}
}

// drainPending appends every already-available input without blocking
func drainPending(inputs <-chan tcell.Event, batch event.Batch) (event.Batch, bool) {
	for {
		select {
		case ev, ok := <-inputs:
			if !ok {
				return batch, true
			}
			batch = append(batch, event.Input(ev))
		default:
			return batch, false
		}
	}
}
