package heat

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethpandaops/datasage/internal/testutil"
	"github.com/ethpandaops/datasage/pkg/catalog"
	"github.com/ethpandaops/datasage/pkg/registry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func counters(t *testing.T) map[string]Counter {
	t.Helper()
	_, client := testutil.NewMiniredisClient(t)

	return map[string]Counter{
		"redis":  NewRedisCounter(client, "datasage"),
		"memory": NewMemoryCounter(),
	}
}

func TestCounter_IncrGet(t *testing.T) {
	for name, c := range counters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			n, err := c.Get(ctx, "rev")
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			for i := 1; i <= 3; i++ {
				n, err = c.Incr(ctx, "rev")
				require.NoError(t, err)
				assert.Equal(t, int64(i), n)
			}

			n, err = c.Get(ctx, "rev")
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			require.NoError(t, c.Delete(ctx, "rev"))

			n, err = c.Get(ctx, "rev")
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)
		})
	}
}

func TestCounter_Reset(t *testing.T) {
	for name, c := range counters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, slug := range []string{"a", "b", "c"} {
				_, err := c.Incr(ctx, slug)
				require.NoError(t, err)
			}

			require.NoError(t, c.Reset(ctx))
			require.NoError(t, c.Reset(ctx))

			for _, slug := range []string{"a", "b", "c"} {
				n, err := c.Get(ctx, slug)
				require.NoError(t, err)
				assert.Equal(t, int64(0), n)
			}
		})
	}
}

func TestCounter_Rename(t *testing.T) {
	for name, c := range counters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				_, err := c.Incr(ctx, "a")
				require.NoError(t, err)
			}

			_, err := c.Incr(ctx, "stale")
			require.NoError(t, err)

			require.NoError(t, c.Rename(ctx, "a", "b"))

			n, err := c.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)

			n, err = c.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			// An unviewed metric takes no count over to its new slug
			require.NoError(t, c.Rename(ctx, "never", "stale"))

			n, err = c.Get(ctx, "stale")
			require.NoError(t, err)
			assert.Equal(t, int64(0), n)

			require.NoError(t, c.Rename(ctx, "b", "b"))

			n, err = c.Get(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, int64(3), n)
		})
	}
}

func TestTracker_FollowsRename(t *testing.T) {
	for name, c := range counters(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			tracker := NewTracker(testLogger(), c)
			reg := registry.New(testLogger(), catalog.DataState{}, registry.WithObserver(tracker))

			register := func(slug string) {
				_, err := reg.RegisterMetric(registry.NewMetricPayload{BusinessName: slug, Slug: slug})
				require.NoError(t, err)
			}

			register("a")

			a, err := reg.Metric("a")
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				tracker.View(ctx, &a)
			}

			_, err = reg.UpdateMetric("a", registry.NewMetricPayload{BusinessName: "b", Slug: "b"})
			require.NoError(t, err)

			register("a")

			metrics := reg.Metrics()
			tracker.Apply(ctx, metrics)

			heat := make(map[string]int, len(metrics))
			for _, m := range metrics {
				heat[m.Slug] = m.Heat
			}

			assert.Equal(t, 5, heat["b"])
			assert.Equal(t, 0, heat["a"])
		})
	}
}

func TestRedisCounter_Keys(t *testing.T) {
	mr, client := testutil.NewMiniredisClient(t)
	ctx := context.Background()

	mr.Set("other:key", "keep")

	c := NewRedisCounter(client, "datasage")
	assert.Equal(t, "datasage:heat:rev", c.Key("rev"))
	assert.Equal(t, "heat:rev", NewRedisCounter(client, "").Key("rev"))

	_, err := c.Incr(ctx, "rev")
	require.NoError(t, err)

	val, err := mr.Get("datasage:heat:rev")
	require.NoError(t, err)
	assert.Equal(t, "1", val)

	require.NoError(t, c.Reset(ctx))
	assert.False(t, mr.Exists("datasage:heat:rev"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCounter_Errors(t *testing.T) {
	mr, client := testutil.NewMiniredisClient(t)
	ctx := context.Background()
	c := NewRedisCounter(client, "datasage")

	mr.Set("datasage:heat:bad", "not-a-number")

	_, err := c.Get(ctx, "bad")
	assert.Error(t, err)

	_, err = c.Incr(ctx, "bad")
	assert.Error(t, err)
}

func TestMemoryCounter_Concurrent(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Incr(ctx, "rev")
		}()
	}
	wg.Wait()

	n, err := c.Get(ctx, "rev")
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)
}

func TestTracker(t *testing.T) {
	ctx := context.Background()
	counter := NewMemoryCounter()
	tracker := NewTracker(testLogger(), counter)

	m := catalog.Metric{Slug: "rev", Heat: 10}

	assert.Equal(t, 11, tracker.View(ctx, &m))
	assert.Equal(t, 12, tracker.View(ctx, &m))

	metrics := []catalog.Metric{m, {Slug: "cost", Heat: 1}}
	tracker.Apply(ctx, metrics)
	assert.Equal(t, 12, metrics[0].Heat)
	assert.Equal(t, 1, metrics[1].Heat)

	tracker.OnChange(registry.ChangeEvent{Kind: registry.ChangeUpdated, Entity: registry.EntityMetric, Key: "rev"})
	n, _ := counter.Get(ctx, "rev")
	assert.Equal(t, int64(2), n)

	tracker.OnChange(registry.ChangeEvent{Kind: registry.ChangeDeleted, Entity: registry.EntityMetric, Key: "rev"})
	n, _ = counter.Get(ctx, "rev")
	assert.Equal(t, int64(0), n)

	_, _ = counter.Incr(ctx, "cost")
	tracker.OnChange(registry.ChangeEvent{Kind: registry.ChangeReset, Entity: registry.EntityCatalog})
	n, _ = counter.Get(ctx, "cost")
	assert.Equal(t, int64(0), n)
}

func TestTracker_ViewFallsBackOnError(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	tracker := NewTracker(testLogger(), NewRedisCounter(client, "datasage"))

	mr.Close()

	m := catalog.Metric{Slug: "rev", Heat: 4}
	assert.Equal(t, 4, tracker.View(context.Background(), &m))
}
