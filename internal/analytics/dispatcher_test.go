package analytics

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/WankioM/property-qr/pkg/logger"
)

func newTestDispatcher(workers, queue, attempts int) *Dispatcher {
	d := NewDispatcher(workers, queue, attempts, logger.NewNopLogger())
	d.backoff = time.Millisecond
	return d
}

func TestDispatcherRunsTasksAndDrainsOnStop(t *testing.T) {
	d := newTestDispatcher(3, 100, 1)
	d.Start()

	var ran atomic.Int64
	for i := 0; i < 50; i++ {
		assert.True(t, d.Submit("count", func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}
	d.Stop()

	assert.Equal(t, int64(50), ran.Load())
	assert.Equal(t, int64(50), d.Stats().Processed)
	assert.False(t, d.Submit("late", func(context.Context) error { return nil }))
}

func TestDispatcherRetriesUntilSuccess(t *testing.T) {
	d := newTestDispatcher(1, 10, 3)
	d.Start()

	var attempts atomic.Int64
	d.Submit("flaky", func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})
	d.Stop()

	assert.Equal(t, int64(3), attempts.Load())
	stats := d.Stats()
	assert.Equal(t, int64(1), stats.Processed)
	assert.Equal(t, int64(2), stats.Retried)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestDispatcherGivesUpAfterMaxAttempts(t *testing.T) {
	d := newTestDispatcher(1, 10, 2)
	d.Start()

	var attempts atomic.Int64
	d.Submit("broken", func(context.Context) error {
		attempts.Add(1)
		return errors.New("permanent")
	})
	d.Stop()

	assert.Equal(t, int64(2), attempts.Load())
	assert.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcherRecoversFromPanics(t *testing.T) {
	d := newTestDispatcher(1, 10, 1)
	d.Start()

	var after atomic.Bool
	d.Submit("panics", func(context.Context) error { panic("boom") })
	d.Submit("after", func(context.Context) error {
		after.Store(true)
		return nil
	})
	d.Stop()

	assert.True(t, after.Load())
	assert.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	// not started, so nothing consumes the queue
	d := newTestDispatcher(1, 2, 1)
	noop := func(context.Context) error { return nil }

	assert.True(t, d.Submit("a", noop))
	assert.True(t, d.Submit("b", noop))
	assert.False(t, d.Submit("c", noop))
	assert.Equal(t, int64(1), d.Stats().Dropped)

	d.Stop()
	assert.Equal(t, int64(2), d.Stats().Processed)
}

func TestDispatcherRunsFollowUpsWhileDraining(t *testing.T) {
	for _, started := range []bool{false, true} {
		d := newTestDispatcher(2, 10, 1)
		if started {
			d.Start()
		}

		var followUps atomic.Int64
		var accepted atomic.Int64
		for i := 0; i < 5; i++ {
			d.Submit("parent", func(context.Context) error {
				// the queue may already be closed by the time this runs
				if d.Submit("child", func(context.Context) error {
					followUps.Add(1)
					return nil
				}) {
					accepted.Add(1)
				}
				return nil
			})
		}
		d.Stop()

		assert.Equal(t, int64(5), accepted.Load(), "started=%v", started)
		assert.Equal(t, int64(5), followUps.Load(), "started=%v", started)
		assert.Equal(t, int64(0), d.Stats().Dropped, "started=%v", started)
		assert.Equal(t, int64(10), d.Stats().Processed, "started=%v", started)
	}
}

func TestDispatcherDropsAfterStop(t *testing.T) {
	d := newTestDispatcher(1, 10, 1)
	d.Start()
	d.Stop()

	var ran atomic.Bool
	assert.False(t, d.Submit("late", func(context.Context) error {
		ran.Store(true)
		return nil
	}))
	assert.False(t, ran.Load())
	assert.Equal(t, int64(1), d.Stats().Dropped)
}
