package events

import (
	"context"
	"encoding/json"
	"time"

	applog "storefront/internal/log"
	"storefront/internal/repos"
)

// Outbox is the relay's view of the outbox table.
type Outbox interface {
	FetchPending(ctx context.Context, limit int) ([]repos.OutboxRecord, error)
	MarkSent(ctx context.Context, id int64) error
}

// Counter is satisfied by prometheus.Counter.
type Counter interface{ Inc() }

type noopCounter struct{}

func (noopCounter) Inc() {}

// Relay polls the outbox and publishes pending events in insertion order.
// Delivery is at-least-once: an event published but not yet marked is sent
// again on the next pass.
type Relay struct {
	Outbox   Outbox
	Pub      Publisher
	Interval time.Duration
	Batch    int
	Sent     Counter
	Failed   Counter
}

func NewRelay(outbox Outbox, pub Publisher, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{Outbox: outbox, Pub: pub, Interval: interval, Batch: 100, Sent: noopCounter{}, Failed: noopCounter{}}
}

// Run drains the outbox every Interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.Interval)
	defer t.Stop()
	for {
		if _, err := r.DrainOnce(ctx); err != nil && ctx.Err() == nil {
			applog.Error(nil, "outbox.drain", err, nil)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// DrainOnce publishes one batch and returns how many events were sent.
// It stops at the first publish failure so ordering is kept.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	recs, err := r.Outbox.FetchPending(ctx, r.Batch)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, rec := range recs {
		e := Event{ID: rec.EventID, Type: rec.Type, Key: rec.Key, Payload: json.RawMessage(rec.Payload)}
		if err := r.Pub.Publish(ctx, e); err != nil {
			r.Failed.Inc()
			return sent, err
		}
		if err := r.Outbox.MarkSent(ctx, rec.ID); err != nil {
			return sent, err
		}
		r.Sent.Inc()
		sent++
	}
	return sent, nil
}
