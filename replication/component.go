// Package replication hosts keyed arrays that are owned by one authoritative
// side and mirrored to replicas. The authoritative component mutates through a
// gate, tracks changes with a dirty flag and version, and flushes compressed
// payloads. Replicas apply those payloads with a bulk replace plus reconcile
// and announce the result to their listeners.
package replication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/amp-labs/keyed-array/logger"
	"github.com/amp-labs/keyed-array/optional"
	"github.com/amp-labs/keyed-array/spans"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

// ErrHasAuthority is returned by Apply on a component that owns its data.
var ErrHasAuthority = errors.New("component has authority and does not accept replicated state")

// AuthorityFunc reports whether the hosting side may mutate the array.
type AuthorityFunc func() bool

// Authoritative always grants authority.
func Authoritative() AuthorityFunc {
	return func() bool { return true }
}

// Proxy never grants authority. Proxies only receive replicated state.
func Proxy() AuthorityFunc {
	return func() bool { return false }
}

// Listener is called after the array changed, with the component's sequence.
// Listeners must not keep the sequence beyond the call.
type Listener[K comparable, V any] func(ctx context.Context, seq *keyed.Sequence[K, V])

type settings struct {
	id          uuid.UUID
	authority   AuthorityFunc
	compression Compression
	capacity    int
	logger      *slog.Logger
}

// Option configures a Component.
type Option func(*settings)

// WithAuthority sets the authority predicate. The default is Authoritative.
func WithAuthority(f AuthorityFunc) Option {
	return func(s *settings) {
		s.authority = f
	}
}

// WithCompression sets the compression used by Snapshot and Flush.
func WithCompression(c Compression) Option {
	return func(s *settings) {
		s.compression = c
	}
}

// WithCapacity reserves room for n pairs.
func WithCapacity(n int) Option {
	return func(s *settings) {
		s.capacity = n
	}
}

// WithLogger sets a fixed logger. Without it the logger comes from the
// context passed to each call.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithID sets the component identity used as the payload origin.
func WithID(id uuid.UUID) Option {
	return func(s *settings) {
		s.id = id
	}
}

// Component hosts one keyed array. It is single-writer: mutations, Apply and
// listener registration must not run concurrently. Dirty and Version may be
// polled from any goroutine.
type Component[K comparable, V any] struct {
	name      string
	id        uuid.UUID
	authority AuthorityFunc
	codec     *Codec[K, V]
	log       *slog.Logger
	seq       *keyed.Sequence[K, V]
	listeners []Listener[K, V]

	dirty   atomic.Bool
	version atomic.Uint64

	lastOrigin      uuid.UUID
	lastVersion     uint64
	lastFingerprint uint64

	// Set by local mutations; lastFingerprint no longer describes seq.
	fingerprintStale bool
}

// NewComponent creates a component called name.
func NewComponent[K comparable, V any](name string, opts ...Option) *Component[K, V] {
	s := settings{
		authority:   Authoritative(),
		compression: CompressionZstd,
	}

	for _, opt := range opts {
		opt(&s)
	}

	if s.id == uuid.Nil {
		s.id = uuid.New()
	}

	if s.authority == nil {
		s.authority = Proxy()
	}

	return &Component[K, V]{
		name:            name,
		id:              s.id,
		authority:       s.authority,
		codec:           NewCodec[K, V](s.compression),
		log:             s.logger,
		seq:             keyed.New[K, V](s.capacity),
		lastFingerprint: Fingerprint([]byte("[]")),
	}
}

func (c *Component[K, V]) logFor(ctx context.Context) *slog.Logger {
	if c.log != nil {
		return c.log.With("component", c.name)
	}

	return logger.Get(ctx).With("component", c.name)
}

// Name returns the component name used in logs and metrics.
func (c *Component[K, V]) Name() string {
	return c.name
}

// ID returns the identity written as the origin of outgoing payloads.
func (c *Component[K, V]) ID() uuid.UUID {
	return c.id
}

// HasAuthority reports whether mutations are currently allowed.
func (c *Component[K, V]) HasAuthority() bool {
	return c.authority()
}

// Version returns the number of successful local mutations.
func (c *Component[K, V]) Version() uint64 {
	return c.version.Load()
}

// Dirty reports whether there are changes that have not been flushed.
func (c *Component[K, V]) Dirty() bool {
	return c.dirty.Load()
}

// OnChanged registers a listener for changes.
func (c *Component[K, V]) OnChanged(l Listener[K, V]) {
	c.listeners = append(c.listeners, l)
}

func (c *Component[K, V]) notify(ctx context.Context) {
	if len(c.listeners) == 0 {
		return
	}

	spans.Start(ctx, "keyedarray.notify",
		spans.WithAttribute("component", attribute.StringValue(c.name)),
		spans.WithAttribute("listeners", attribute.IntValue(len(c.listeners))),
	).Enter(func(ctx context.Context, _ trace.Span) {
		for _, l := range c.listeners {
			l(ctx, c.seq)
		}
	})
}

func (c *Component[K, V]) allowed(ctx context.Context, op string) bool {
	if c.authority() {
		return true
	}

	rejected.WithLabelValues(c.name, op).Inc()
	c.logFor(ctx).Debug("mutation rejected without authority", "op", op)

	return false
}

func (c *Component[K, V]) changed(ctx context.Context, op string) {
	c.dirty.Store(true)
	c.version.Inc()
	c.fingerprintStale = true
	mutations.WithLabelValues(c.name, op).Inc()
	c.notify(ctx)
}

// Get returns the value for key, or the zero value.
func (c *Component[K, V]) Get(key K) V { //nolint:ireturn
	return c.seq.Get(key)
}

// Lookup returns the value for key, if present.
func (c *Component[K, V]) Lookup(key K) optional.Value[V] {
	return c.seq.Lookup(key)
}

// Contains reports whether key is present.
func (c *Component[K, V]) Contains(key K) bool {
	return c.seq.Contains(key)
}

// IndexOf returns the position of key, or -1.
// Index returns a copy of the key to position map.
func (c *Component[K, V]) IndexOf(key K) int {
	return c.seq.IndexOf(key)
}

// Len returns the number of pairs.
func (c *Component[K, V]) Len() int {
	return c.seq.Len()
}

// Cap returns the reserved room of the hosted sequence.
func (c *Component[K, V]) Cap() int {
	return c.seq.Cap()
}

// KeyAt returns the key at pos, if pos is valid.
func (c *Component[K, V]) KeyAt(pos int) optional.Value[K] {
	return c.seq.KeyAt(pos)
}

// PairAt returns the pair at pos, if pos is valid.
func (c *Component[K, V]) PairAt(pos int) optional.Value[keyed.Pair[K, V]] {
	return c.seq.PairAt(pos)
}

// Pairs returns a copy of the ordered pairs.
func (c *Component[K, V]) Pairs() []keyed.Pair[K, V] {
	return c.seq.Pairs()
}

func (c *Component[K, V]) Index() map[K]int {
	return c.seq.Index()
}

// Keys returns the keys in order.
func (c *Component[K, V]) Keys() []K {
	return c.seq.Keys()
}

// Last panics when offset is out of range, like LastPair.
func (c *Component[K, V]) Last(offset int) V { //nolint:ireturn
	return c.seq.Last(offset)
}

// LastPair returns the pair offset places from the end. It panics when offset
// is out of range.
func (c *Component[K, V]) LastPair(offset int) keyed.Pair[K, V] {
	return c.seq.LastPair(offset)
}

// LastPairOrNone is LastPair without the panic.
func (c *Component[K, V]) LastPairOrNone(offset int) optional.Value[keyed.Pair[K, V]] {
	return c.seq.LastPairOrNone(offset)
}

// Verify checks the index of the hosted sequence.
func (c *Component[K, V]) Verify() error {
	return c.seq.Verify()
}

// Add upserts key. It returns -1 without authority.
func (c *Component[K, V]) Add(ctx context.Context, key K, value V) int {
	if !c.allowed(ctx, "add") {
		return -1
	}

	pos := c.seq.Add(key, value)
	c.changed(ctx, "add")

	return pos
}

// Emplace is Add.
func (c *Component[K, V]) Emplace(ctx context.Context, key K, value V) int {
	if !c.allowed(ctx, "emplace") {
		return -1
	}

	pos := c.seq.Emplace(key, value)
	c.changed(ctx, "emplace")

	return pos
}

// EmplaceAt is Insert.
func (c *Component[K, V]) EmplaceAt(ctx context.Context, key K, value V, at int) int {
	if !c.allowed(ctx, "emplaceAt") {
		return -1
	}

	pos := c.seq.EmplaceAt(key, value, at)
	c.changed(ctx, "emplaceAt")

	return pos
}

// Insert places key at position at. It returns -1 without authority.
func (c *Component[K, V]) Insert(ctx context.Context, key K, value V, at int) int {
	if !c.allowed(ctx, "insert") {
		return -1
	}

	pos := c.seq.Insert(key, value, at)
	c.changed(ctx, "insert")

	return pos
}

// Remove deletes key. It returns false without authority or when key is absent.
func (c *Component[K, V]) Remove(ctx context.Context, key K) bool {
	if !c.allowed(ctx, "remove") {
		return false
	}

	if !c.seq.Remove(key) {
		return false
	}

	c.changed(ctx, "remove")

	return true
}

// RemoveAt deletes the pair at pos.
func (c *Component[K, V]) RemoveAt(ctx context.Context, pos int) bool {
	if !c.allowed(ctx, "removeAt") {
		return false
	}

	if !c.seq.RemoveAt(pos) {
		return false
	}

	c.changed(ctx, "removeAt")

	return true
}

// RemoveFirstFunc deletes the first pair matching pred and returns its
// position, or -1.
func (c *Component[K, V]) RemoveFirstFunc(ctx context.Context, pred func(keyed.Pair[K, V]) bool) int {
	if !c.allowed(ctx, "removeFirstFunc") {
		return -1
	}

	pos := c.seq.RemoveFirstFunc(pred)
	if pos >= 0 {
		c.changed(ctx, "removeFirstFunc")
	}

	return pos
}

// RemoveFunc deletes every pair matching pred and returns how many went.
func (c *Component[K, V]) RemoveFunc(ctx context.Context, pred func(keyed.Pair[K, V]) bool) int {
	if !c.allowed(ctx, "removeFunc") {
		return 0
	}

	n := c.seq.RemoveFunc(pred)
	if n > 0 {
		c.changed(ctx, "removeFunc")
	}

	return n
}

// Clear empties the array, reserving room for reserve pairs. Clearing an
// empty array still applies the reserve but is not a change.
func (c *Component[K, V]) Clear(ctx context.Context, reserve int) {
	if !c.allowed(ctx, "clear") {
		return
	}

	wasEmpty := c.seq.Len() == 0

	c.seq.Clear(reserve)

	if !wasEmpty {
		c.changed(ctx, "clear")
	}
}

// Replace installs a copy of pairs wholesale, as an authoritative bulk update.
// The caller keeps ownership of pairs.
func (c *Component[K, V]) Replace(ctx context.Context, pairs []keyed.Pair[K, V]) bool {
	if !c.allowed(ctx, "replace") {
		return false
	}

	c.seq.Replace(slices.Clone(pairs))
	c.seq.Reconcile()
	c.changed(ctx, "replace")

	return true
}

func (c *Component[K, V]) encode(ctx context.Context) ([]byte, error) {
	return spans.StartValErr[[]byte](ctx, "keyedarray.encode",
		spans.WithAttribute("component", attribute.StringValue(c.name)),
		spans.WithAttribute("compression", attribute.StringValue(c.codec.Compression().String())),
		spans.WithErrorMessage("encoding payload"),
	).Enter(func(ctx context.Context, span trace.Span) ([]byte, error) {
		payload, err := c.codec.Encode(Envelope[K, V]{
			Origin:  c.id,
			Version: c.version.Load(),
			Pairs:   c.seq.Pairs(),
		})
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", c.name, err)
		}

		span.SetAttributes(
			attribute.Int64("version", int64(c.version.Load())), //nolint:gosec
			attribute.Int("pairs", c.seq.Len()),
			attribute.Int("bytes", len(payload)))

		payloadBytes.WithLabelValues(c.name, "out").Observe(float64(len(payload)))
		c.logFor(ctx).Debug("encoded payload",
			"version", c.version.Load(),
			"pairs", c.seq.Len(),
			"bytes", len(payload))

		return payload, nil
	})
}

// Snapshot encodes the full current state.
func (c *Component[K, V]) Snapshot(ctx context.Context) ([]byte, error) {
	return c.encode(ctx)
}

// Flush encodes the current state if it changed since the last flush. The
// boolean is false when there was nothing to send.
func (c *Component[K, V]) Flush(ctx context.Context) ([]byte, bool, error) {
	if !c.dirty.CompareAndSwap(true, false) {
		return nil, false, nil
	}

	payload, err := c.encode(ctx)
	if err != nil {
		c.dirty.Store(true)

		return nil, false, err
	}

	return payload, true, nil
}

// Apply installs a payload produced by another component's Snapshot or Flush.
// It reports whether the visible state changed; listeners are notified when
// it did. Payloads older than the last one applied from the same origin are
// ignored.
func (c *Component[K, V]) Apply(ctx context.Context, payload []byte) (bool, error) {
	if c.authority() {
		return false, ErrHasAuthority
	}

	return spans.StartValErr[bool](ctx, "keyedarray.apply",
		spans.WithSpanKind(trace.SpanKindConsumer),
		spans.WithAttribute("component", attribute.StringValue(c.name)),
		spans.WithAttribute("bytes", attribute.IntValue(len(payload))),
		spans.WithErrorMessage("applying payload"),
	).Enter(func(ctx context.Context, span trace.Span) (bool, error) {
		changed, err := c.apply(ctx, payload)
		span.SetAttributes(attribute.Bool("changed", changed))

		return changed, err
	})
}

func (c *Component[K, V]) apply(ctx context.Context, payload []byte) (bool, error) {
	log := c.logFor(ctx)

	env, err := c.codec.Decode(payload)
	if err != nil {
		applyErrors.WithLabelValues(c.name).Inc()
		log.Warn("failed to decode payload", "error", err)

		return false, fmt.Errorf("component %s: %w", c.name, err)
	}

	payloadBytes.WithLabelValues(c.name, "in").Observe(float64(len(payload)))

	if env.Origin == c.lastOrigin && env.Version <= c.lastVersion {
		reconciles.WithLabelValues(c.name, "stale").Inc()
		log.Debug("ignoring stale payload", "version", env.Version, "applied", c.lastVersion)

		return false, nil
	}

	// Local edits made while this side held authority.
	if c.fingerprintStale {
		held, err := c.fingerprint()
		if err != nil {
			return false, err
		}

		c.lastFingerprint = held
		c.fingerprintStale = false
	}

	c.lastOrigin = env.Origin
	c.lastVersion = env.Version

	c.seq.Replace(env.Pairs)
	rebuilt := c.seq.Reconcile()

	// Duplicate keys dropped by the rebuild change the content we hold.
	fingerprint := env.Fingerprint
	if rebuilt {
		fingerprint, err = c.fingerprint()
		if err != nil {
			return false, err
		}
	}

	changed := rebuilt || fingerprint != c.lastFingerprint
	c.lastFingerprint = fingerprint

	switch {
	case rebuilt:
		reconciles.WithLabelValues(c.name, "rebuilt").Inc()
	case changed:
		reconciles.WithLabelValues(c.name, "values").Inc()
	default:
		reconciles.WithLabelValues(c.name, "clean").Inc()
	}

	log.Debug("applied payload",
		"origin", env.Origin,
		"version", env.Version,
		"rebuilt", rebuilt,
		"changed", changed)

	if changed {
		c.notify(ctx)
	}

	return changed, nil
}

func (c *Component[K, V]) fingerprint() (uint64, error) {
	data, err := json.Marshal(c.seq)
	if err != nil {
		return 0, fmt.Errorf("component %s: %w", c.name, err)
	}

	return Fingerprint(data), nil
}
