package events

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/repos"
)

type capture struct {
	got  []Event
	fail error
}

func (c *capture) Publish(_ context.Context, e Event) error {
	if c.fail != nil {
		return c.fail
	}
	c.got = append(c.got, e)
	return nil
}

func (c *capture) Close() error { return nil }

type count struct{ n int }

func (c *count) Inc() { c.n++ }

func newOutbox(t *testing.T) *repos.OutboxRepo {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repos.NewOutboxRepo(db)
}

func TestDrainOncePublishesInOrderAndMarksSent(t *testing.T) {
	ctx := context.Background()
	ob := newOutbox(t)
	require.NoError(t, ob.Insert(ctx, "e1", TypeOrderCreated, "1", OrderCreated{OrderID: 1, TotalAmount: "10.00"}))
	require.NoError(t, ob.Insert(ctx, "e2", TypeOrderCreated, "2", OrderCreated{OrderID: 2, TotalAmount: "5.50"}))

	pub := &capture{}
	r := NewRelay(ob, pub, time.Second)
	sent := &count{}
	r.Sent = sent

	n, err := r.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, sent.n)
	require.Len(t, pub.got, 2)
	assert.Equal(t, "e1", pub.got[0].ID)
	assert.Equal(t, "2", pub.got[1].Key)
	assert.JSONEq(t, `{"orderId":2,"userId":0,"items":null,"totalAmount":"5.50","paymentMethod":"","createdAt":""}`, string(pub.got[1].Payload))

	n, err = r.DrainOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDrainOnceKeepsEventsWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	ob := newOutbox(t)
	require.NoError(t, ob.Insert(ctx, "e1", TypeOrderCreated, "1", OrderCreated{OrderID: 1}))

	failed := &count{}
	r := NewRelay(ob, &capture{fail: errors.New("broker down")}, time.Second)
	r.Failed = failed

	_, err := r.DrainOnce(ctx)
	assert.Error(t, err)
	assert.Equal(t, 1, failed.n)

	pending, err := ob.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	ob := newOutbox(t)
	r := NewRelay(ob, LogPublisher{}, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
