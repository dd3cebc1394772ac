// Package audio plays the short cue sounded when a refresh changed visible state.
//
// Audio is optional: when the speaker cannot be opened every call is a no-op.
package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	sampleRate = beep.SampleRate(44100)

	chimeFrequency = 880
	chimeDuration  = 60 * time.Millisecond
)

// Chime plays a fixed short tone
type Chime struct {
	mu          sync.Mutex
	volume      float64 // 0.0-1.0
	initialized bool
}

// NewChime creates a chime at the given volume, clamped to [0, 1]
func NewChime(volume float64) *Chime {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	return &Chime{volume: volume}
}

// Initialize opens the speaker
// Failure leaves the chime silent; callers continue without audio
func (c *Chime) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return errors.Wrap(err, "speaker init")
	}
	c.initialized = true
	return nil
}

// Play sounds the chime without blocking
func (c *Chime) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}

	tone, err := c.tone()
	if err != nil {
		log.WithField("component", "audio").WithError(err).Warn("chime")
		return
	}
	speaker.Play(tone)
}

// tone builds the finite, volume-adjusted chime streamer
func (c *Chime) tone() (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, chimeFrequency)
	if err != nil {
		return nil, err
	}
	return &effects.Gain{
		Streamer: beep.Take(sampleRate.N(chimeDuration), sine),
		Gain:     c.volume - 1,
	}, nil
}

// Cleanup closes the speaker
func (c *Chime) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Close()
	c.initialized = false
}
