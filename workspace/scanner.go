package workspace

import (
	"context"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/core"
	"github.com/lixenwraith/termloop/notify"
)

// Scanner lists the root directory in the background
// Requests coalesce in a 1-slot channel; every scan that changes the listing
// publishes a Snapshot and sends one refresh signal
type Scanner struct {
	root       string
	showHidden bool
	interval   time.Duration // Minimum spacing between scans
	sender     notify.Sender

	requests chan struct{}
	results  chan Snapshot

	// Owned by the scanner goroutine
	seq  uint64
	last []Entry

	scans atomic.Uint64
}

// NewScanner creates an idle scanner; call Start to run it
func NewScanner(root string, showHidden bool, interval time.Duration, sender notify.Sender) *Scanner {
	return &Scanner{
		root:       root,
		showHidden: showHidden,
		interval:   interval,
		sender:     sender,
		requests:   make(chan struct{}, 1),
		results:    make(chan Snapshot, 1),
	}
}

// Start runs the scan goroutine until ctx is done
func (s *Scanner) Start(ctx context.Context) {
	core.Go(func() { s.run(ctx) })
}

// Request asks for a scan without blocking; pending requests collapse into one
func (s *Scanner) Request() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

// Latest takes the most recent unread snapshot, if any
func (s *Scanner) Latest() (Snapshot, bool) {
	select {
	case snap := <-s.results:
		return snap, true
	default:
		return Snapshot{}, false
	}
}

// Scans returns the number of completed scans
func (s *Scanner) Scans() uint64 {
	return s.scans.Load()
}

func (s *Scanner) run(ctx context.Context) {
	logger := log.WithFields(log.Fields{"component": "scanner", "root": s.root})

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.requests:
		}

		entries, err := Scan(s.root, s.showHidden)
		s.scans.Add(1)
		if err != nil {
			logger.WithError(err).Warn("scan failed")
		} else if s.seq == 0 || !Compare(s.last, entries).Empty() {
			s.seq++
			s.last = entries
			s.publish(Snapshot{Root: s.root, Entries: entries, Seq: s.seq})
			s.sender.Notify()
			logger.WithFields(log.Fields{"seq": s.seq, "entries": len(entries)}).Debug("snapshot published")
		}

		if s.interval > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.interval):
			}
		}
	}
}

// publish replaces any unread snapshot with snap; the scanner is the only writer
func (s *Scanner) publish(snap Snapshot) {
	select {
	case <-s.results:
	default:
	}
	s.results <- snap
}
