package poll

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/termloop/event"
)

// chanReader replays events from a channel; closing it closes the device
type chanReader struct {
	events chan tcell.Event
}

func newChanReader() *chanReader {
	return &chanReader{events: make(chan tcell.Event, 64)}
}

func (r *chanReader) PollEvent() tcell.Event {
	ev, ok := <-r.events
	if !ok {
		return nil
	}
	return ev
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func nextBatch(t *testing.T, ch <-chan event.Batch) event.Batch {
	t.Helper()
	select {
	case b, ok := <-ch:
		require.True(t, ok, "channel closed unexpectedly")
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
		return nil
	}
}

func TestPendingInputIsBatchedInOrder(t *testing.T) {
	reader := newChanReader()

	// Queue the burst before sampling starts so one cycle sees all of it
	reader.events <- key('a')
	reader.events <- key('b')
	reader.events <- key('c')

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Start(ctx, reader, Config{PollInterval: 50 * time.Millisecond, TickInterval: time.Hour})

	var runes []rune
	for len(runes) < 3 {
		for _, ev := range nextBatch(t, ch) {
			require.Equal(t, event.KindInput, ev.Kind)
			runes = append(runes, ev.Input.(*tcell.EventKey).Rune())
		}
	}
	assert.Equal(t, []rune{'a', 'b', 'c'}, runes)
}

func TestTickEmittedWhenIdle(t *testing.T) {
	reader := newChanReader()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Start(ctx, reader, Config{PollInterval: 5 * time.Millisecond, TickInterval: 20 * time.Millisecond})

	b := nextBatch(t, ch)
	assert.Equal(t, []event.Kind{event.KindTick}, b.Kinds())

	b = nextBatch(t, ch)
	assert.Equal(t, []event.Kind{event.KindTick}, b.Kinds())
}

func TestInputDefersTick(t *testing.T) {
	reader := newChanReader()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Start(ctx, reader, Config{PollInterval: 5 * time.Millisecond, TickInterval: 200 * time.Millisecond})

	reader.events <- key('x')
	b := nextBatch(t, ch)
	require.Len(t, b, 1)
	assert.Equal(t, event.KindInput, b[0].Kind)

	// No tick right after an input batch
	select {
	case b := <-ch:
		t.Fatalf("unexpected batch %v", b.Kinds())
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeviceCloseDisconnects(t *testing.T) {
	reader := newChanReader()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Start(ctx, reader, Config{PollInterval: 5 * time.Millisecond, TickInterval: time.Hour})

	reader.events <- key('z')
	close(reader.events)

	var got []event.Kind
	deadline := time.After(2 * time.Second)
	for {
		select {
		case b, ok := <-ch:
			if !ok {
				assert.Equal(t, []event.Kind{event.KindInput}, got, "pending input delivered before disconnect")
				return
			}
			got = append(got, b.Kinds()...)
		case <-deadline:
			t.Fatal("channel was not closed after device close")
		}
	}
}

func TestCancelStopsWithoutDisconnect(t *testing.T) {
	reader := newChanReader()
	ctx, cancel := context.WithCancel(context.Background())

	ch := Start(ctx, reader, Config{PollInterval: 5 * time.Millisecond, TickInterval: time.Hour})
	cancel()

	select {
	case _, ok := <-ch:
		assert.True(t, ok, "cancellation must not close the channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultConfig(), cfg)
}
