package replication_test

import (
	"context"
	"sync"
	"testing"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/amp-labs/keyed-array/logger"
	"github.com/amp-labs/keyed-array/replication"
	"github.com/amp-labs/keyed-array/spans"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	otelTrace "go.opentelemetry.io/otel/trace"
)

func TestHub_Replicate(t *testing.T) {
	t.Parallel()

	log := slogt.New(t)
	ctx := logger.WithLogger(t.Context(), log)

	owner := replication.NewComponent[string, int]("owner", replication.WithLogger(log))

	hub := replication.NewHub[string, int]("scores", 3)
	t.Cleanup(hub.Close)

	var (
		mut      sync.Mutex
		notified int
	)

	for range 10 {
		replica := replication.NewComponent[string, int]("replica",
			replication.WithLogger(log),
			replication.WithAuthority(replication.Proxy()))
		replica.OnChanged(func(context.Context, *keyed.Sequence[string, int]) {
			mut.Lock()
			notified++
			mut.Unlock()
		})
		hub.Register(replica)
	}

	require.Len(t, hub.Replicas(), 10)

	n, err := hub.Replicate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "nothing to flush")

	owner.Add(ctx, "a", 1)
	owner.Add(ctx, "b", 2)

	n, err = hub.Replicate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 10, notified)

	owner.Remove(ctx, "a")

	n, err = hub.Replicate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	for _, replica := range hub.Replicas() {
		assert.Equal(t, []string{"b"}, replica.Keys())
		require.NoError(t, replica.Verify())
	}
}

func TestHub_BroadcastCollectsErrors(t *testing.T) {
	t.Parallel()

	log := slogt.New(t)
	ctx := t.Context()

	hub := replication.NewHubFromConfig[string, int]("mixed", replication.Config{FanoutWorkers: 2})
	t.Cleanup(hub.Close)

	// An authoritative component refuses replicated state.
	hub.Register(
		replication.NewComponent[string, int]("owner", replication.WithLogger(log)),
		replication.NewComponent[string, int]("replica",
			replication.WithLogger(log),
			replication.WithAuthority(replication.Proxy())),
	)

	source := replication.NewComponent[string, int]("source", replication.WithLogger(log))
	source.Add(ctx, "a", 1)

	payload, err := source.Snapshot(ctx)
	require.NoError(t, err)

	n, err := hub.Broadcast(ctx, payload)
	require.ErrorIs(t, err, replication.ErrHasAuthority)
	assert.Equal(t, 1, n)
}

func TestHub_Empty(t *testing.T) {
	t.Parallel()

	hub := replication.NewHub[string, int]("empty", 0)
	t.Cleanup(hub.Close)

	n, err := hub.Broadcast(t.Context(), []byte{0})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestHub_RegisterIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	log := slogt.New(t)
	ctx := logger.WithLogger(t.Context(), log)

	owner := replication.NewComponent[string, int]("owner", replication.WithLogger(log))
	replica := replication.NewComponent[string, int]("replica",
		replication.WithLogger(log),
		replication.WithAuthority(replication.Proxy()))

	hub := replication.NewHub[string, int]("dupes", 4)
	t.Cleanup(hub.Close)

	hub.Register(replica, replica, nil, replica)
	hub.Register(replica)

	require.Len(t, hub.Replicas(), 1)

	var (
		mut      sync.Mutex
		notified int
	)

	replica.OnChanged(func(context.Context, *keyed.Sequence[string, int]) {
		mut.Lock()
		notified++
		mut.Unlock()
	})

	// Two tasks for one replica would race on its state under -race.
	for i := range 50 {
		owner.Add(ctx, "k", i)

		changed, err := hub.Replicate(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, 1, changed)
	}

	assert.Equal(t, 49, replica.Get("k"))
	assert.Equal(t, 50, notified)
	require.NoError(t, replica.Verify())
}

func TestHub_BroadcastSpan(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	log := slogt.New(t)
	ctx := spans.WithTracer(logger.WithLogger(t.Context(), log), tp.Tracer("test"))

	owner := replication.NewComponent[string, int]("owner", replication.WithLogger(log))

	hub := replication.NewHub[string, int]("traced", 2)
	t.Cleanup(hub.Close)

	for range 3 {
		hub.Register(replication.NewComponent[string, int]("replica",
			replication.WithLogger(log),
			replication.WithAuthority(replication.Proxy())))
	}

	owner.Add(ctx, "a", 1)

	changed, err := hub.Replicate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, changed)

	var broadcast *tracetest.SpanStub

	applies := 0

	for _, span := range exporter.GetSpans() {
		switch span.Name {
		case "keyedarray.broadcast":
			broadcast = &span
		case "keyedarray.apply":
			applies++
		}
	}

	require.NotNil(t, broadcast)
	assert.Equal(t, 3, applies)
	assert.Equal(t, otelTrace.SpanKindProducer, broadcast.SpanKind)
	assert.Contains(t, broadcast.Attributes, attribute.Int("changed", 3))
	assert.Contains(t, broadcast.Attributes, attribute.String("hub", "traced"))
}
