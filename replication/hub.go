package replication

import (
	"context"
	"slices"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/keyed-array/errors"
	"github.com/amp-labs/keyed-array/logger"
	"github.com/amp-labs/keyed-array/spans"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// Hub fans payloads out to a set of replica components on a worker pool.
// Each replica receives at most one task per broadcast.
type Hub[K comparable, V any] struct {
	name     string
	pool     pond.Pool
	mut      sync.RWMutex
	replicas []*Component[K, V]
}

// NewHub creates a hub with the given number of workers.
func NewHub[K comparable, V any](name string, workers int) *Hub[K, V] {
	if workers <= 0 {
		workers = defaultFanoutWorkers
	}

	return &Hub[K, V]{
		name: name,
		pool: pond.NewPool(workers),
	}
}

// NewHubFromConfig creates a hub sized by cfg.
func NewHubFromConfig[K comparable, V any](name string, cfg Config) *Hub[K, V] {
	return NewHub[K, V](name, cfg.FanoutWorkers)
}

// Register adds replicas to the hub. Nil and already registered components
// are skipped.
func (h *Hub[K, V]) Register(replicas ...*Component[K, V]) {
	h.mut.Lock()
	defer h.mut.Unlock()

	for _, replica := range replicas {
		if replica == nil || slices.Contains(h.replicas, replica) {
			continue
		}

		h.replicas = append(h.replicas, replica)
	}
}

// Replicas returns the registered replicas.
func (h *Hub[K, V]) Replicas() []*Component[K, V] {
	h.mut.RLock()
	defer h.mut.RUnlock()

	out := make([]*Component[K, V], len(h.replicas))
	copy(out, h.replicas)

	return out
}

// Broadcast applies payload to every replica and returns how many of them
// changed. All replicas are attempted; their errors are joined.
func (h *Hub[K, V]) Broadcast(ctx context.Context, payload []byte) (int, error) {
	replicas := h.Replicas()
	if len(replicas) == 0 {
		return 0, nil
	}

	return spans.StartValErr[int](ctx, "keyedarray.broadcast",
		spans.WithSpanKind(trace.SpanKindProducer),
		spans.WithAttribute("hub", attribute.StringValue(h.name)),
		spans.WithAttribute("replicas", attribute.IntValue(len(replicas))),
		spans.WithAttribute("bytes", attribute.IntValue(len(payload))),
		spans.WithErrorMessage("broadcasting payload"),
	).Enter(func(ctx context.Context, span trace.Span) (int, error) {
		n, err := h.broadcast(ctx, replicas, payload)
		span.SetAttributes(attribute.Int("changed", n))

		return n, err
	})
}

func (h *Hub[K, V]) broadcast(ctx context.Context, replicas []*Component[K, V], payload []byte) (int, error) {
	var (
		errMut sync.Mutex
		errs   errors.Collection
	)

	changed := atomic.NewInt64(0)
	group := h.pool.NewGroup()

	for _, replica := range replicas {
		group.Submit(func() {
			ok, err := replica.Apply(ctx, payload)
			if err != nil {
				errMut.Lock()
				errs.Add(err)
				errMut.Unlock()

				return
			}

			if ok {
				changed.Inc()
			}
		})
	}

	if err := group.Wait(); err != nil {
		errs.Add(err)
	}

	n := int(changed.Load())

	logger.Get(ctx).Debug("broadcast payload",
		"hub", h.name,
		"replicas", len(replicas),
		"changed", n,
		"errors", errs.Len())

	return n, errs.GetError()
}

// Replicate flushes source and broadcasts the payload if there was one.
func (h *Hub[K, V]) Replicate(ctx context.Context, source *Component[K, V]) (int, error) {
	payload, ok, err := source.Flush(ctx)
	if err != nil || !ok {
		return 0, err
	}

	return h.Broadcast(ctx, payload)
}

// Close waits for running tasks and stops the pool.
func (h *Hub[K, V]) Close() {
	h.pool.StopAndWait()
}
