package audio

import (
	"math"
	"testing"
)

// TestChimeGracefulDegradation verifies playback is safe without a speaker
func TestChimeGracefulDegradation(t *testing.T) {
	c := NewChime(0.5)

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Chime panicked without initialization: %v", r)
		}
	}()

	c.Play()
	c.Cleanup()
}

// TestChimeInitialization verifies chime can be initialized and cleaned up
func TestChimeInitialization(t *testing.T) {
	c := NewChime(0.5)

	// Speaker initialization may fail in CI/test environments without audio devices
	if err := c.Initialize(); err != nil {
		t.Logf("Speaker initialization failed (expected in test environment): %v", err)
		return
	}

	if err := c.Initialize(); err != nil {
		t.Errorf("Second Initialize should be a no-op, got %v", err)
	}
	c.Play()
	c.Cleanup()
}

func TestChimeToneIsFiniteAndScaled(t *testing.T) {
	c := NewChime(0.25)

	tone, err := c.tone()
	if err != nil {
		t.Fatalf("tone: %v", err)
	}

	buf := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for {
		n, ok := tone.Stream(buf)
		for _, s := range buf[:n] {
			peak = math.Max(peak, math.Abs(s[0]))
		}
		total += n
		if !ok || n == 0 {
			break
		}
	}

	if want := sampleRate.N(chimeDuration); total != want {
		t.Errorf("Expected %d samples, got %d", want, total)
	}
	if peak > 0.25+1e-9 {
		t.Errorf("Expected peak <= 0.25 at volume 0.25, got %f", peak)
	}
}

func TestNewChimeClampsVolume(t *testing.T) {
	if v := NewChime(2).volume; v != 1 {
		t.Errorf("Expected volume clamped to 1, got %f", v)
	}
	if v := NewChime(-1).volume; v != 0 {
		t.Errorf("Expected volume clamped to 0, got %f", v)
	}
}
