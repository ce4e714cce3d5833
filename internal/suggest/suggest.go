// Package suggest provides debounced, latest-wins product search for
// incremental cashier input. Keystrokes arrive faster than the backend
// should be queried; only the most recent query may produce results.
package suggest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pos-sales/internal/backend"
	"pos-sales/internal/model"
)

// DefaultDelay is the debounce window before a query is sent upstream.
const DefaultDelay = 100 * time.Millisecond

// Debouncer serializes suggestion queries so that a newer query always
// supersedes an older one, even when backend responses arrive out of order.
// One Debouncer covers one input stream; independent registers each get
// their own so a query at one never invalidates a query at another.
type Debouncer struct {
	svc    backend.Service
	delay  time.Duration
	logger *slog.Logger

	mu  sync.Mutex
	seq uint64
}

// New creates a Debouncer over the given backend. A zero delay selects
// DefaultDelay.
func New(svc backend.Service, delay time.Duration, logger *slog.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer{svc: svc, delay: delay, logger: logger}
}

// begin registers a new query attempt and returns its sequence number.
// Every call invalidates all earlier attempts.
func (d *Debouncer) begin() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return d.seq
}

// isLatest reports whether the given attempt is still the most recent.
func (d *Debouncer) isLatest(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq == d.seq
}

// Query runs one debounced suggestion lookup. It waits out the debounce
// window, then queries the backend only if no newer call has arrived in
// the meantime. The bool result reports whether the results are current:
// a superseded query returns (nil, false, nil) and its results must be
// discarded, never rendered.
func (d *Debouncer) Query(ctx context.Context, query string) ([]model.Product, bool, error) {
	seq := d.begin()

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-time.After(d.delay):
	}

	if !d.isLatest(seq) {
		return nil, false, nil
	}

	matches, err := d.svc.SearchProducts(ctx, query)
	if err != nil {
		// A stale error is as useless as a stale result.
		if !d.isLatest(seq) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// The backend may answer slowly; a newer query can overtake this one
	// mid-flight.
	if !d.isLatest(seq) {
		d.logger.Debug("discarding stale suggestions", "query", query)
		return nil, false, nil
	}

	return matches, true, nil
}
