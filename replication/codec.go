package replication

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/amp-labs/keyed-array/keyed"
	"github.com/andybalholm/brotli"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/xxh3"
)

var (
	// ErrEmptyPayload is returned when decoding zero bytes.
	ErrEmptyPayload = errors.New("empty payload")

	// ErrCorruptPayload is returned when the pairs do not match the fingerprint
	// carried in the envelope.
	ErrCorruptPayload = errors.New("payload fingerprint mismatch")

	// ErrPayloadTooLarge is returned when a payload decompresses past the
	// codec's limit.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// DefaultMaxPayloadSize bounds the decompressed size of a payload.
const DefaultMaxPayloadSize = 64 << 20

// Envelope is one full replication of a keyed array: the ordered pairs plus
// enough metadata for the receiver to order updates and detect value changes.
type Envelope[K comparable, V any] struct {
	Origin      uuid.UUID
	Version     uint64
	Fingerprint uint64
	Pairs       []keyed.Pair[K, V]
}

type wireEnvelope struct {
	Origin      uuid.UUID       `json:"origin"`
	Version     uint64          `json:"version"`
	Fingerprint uint64          `json:"fingerprint"`
	Pairs       json.RawMessage `json:"pairs"`
}

// Fingerprint hashes the JSON encoding of the pairs with xxh3.
func Fingerprint(pairsJSON []byte) uint64 {
	return xxh3.Hash(pairsJSON)
}

// Codec turns envelopes into compressed payloads and back.
type Codec[K comparable, V any] struct {
	compression Compression
	maxSize     int64
}

// NewCodec creates a codec writing payloads with the given compression. Any
// supported compression can be read regardless of this setting.
func NewCodec[K comparable, V any](compression Compression) *Codec[K, V] {
	return &Codec[K, V]{
		compression: compression,
		maxSize:     DefaultMaxPayloadSize,
	}
}

// SetMaxPayloadSize changes the decompressed size limit for Decode.
func (c *Codec[K, V]) SetMaxPayloadSize(n int64) {
	c.maxSize = n
}

// Compression returns the compression used when encoding.
func (c *Codec[K, V]) Compression() Compression {
	return c.compression
}

// Encode serializes env. The Fingerprint field is computed, not taken from env.
func (c *Codec[K, V]) Encode(env Envelope[K, V]) ([]byte, error) {
	pairs := env.Pairs
	if pairs == nil {
		pairs = []keyed.Pair[K, V]{}
	}

	pairsJSON, err := json.Marshal(pairs)
	if err != nil {
		return nil, fmt.Errorf("encoding pairs: %w", err)
	}

	body, err := json.Marshal(wireEnvelope{
		Origin:      env.Origin,
		Version:     env.Version,
		Fingerprint: Fingerprint(pairsJSON),
		Pairs:       pairsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}

	var buf bytes.Buffer

	buf.WriteByte(byte(c.compression))

	if err := compress(c.compression, &buf, body); err != nil {
		return nil, fmt.Errorf("compressing with %s: %w", c.compression, err)
	}

	return buf.Bytes(), nil
}

// Decode parses a payload produced by Encode.
func (c *Codec[K, V]) Decode(payload []byte) (Envelope[K, V], error) {
	if len(payload) == 0 {
		return Envelope[K, V]{}, ErrEmptyPayload
	}

	compression := Compression(payload[0])

	body, err := decompress(compression, payload[1:], c.maxSize)
	if err != nil {
		return Envelope[K, V]{}, fmt.Errorf("decompressing with %s: %w", compression, err)
	}

	var wire wireEnvelope
	if err := json.Unmarshal(body, &wire); err != nil {
		return Envelope[K, V]{}, fmt.Errorf("decoding envelope: %w", err)
	}

	if Fingerprint(wire.Pairs) != wire.Fingerprint {
		return Envelope[K, V]{}, ErrCorruptPayload
	}

	var pairs []keyed.Pair[K, V]
	if err := json.Unmarshal(wire.Pairs, &pairs); err != nil {
		return Envelope[K, V]{}, fmt.Errorf("decoding pairs: %w", err)
	}

	return Envelope[K, V]{
		Origin:      wire.Origin,
		Version:     wire.Version,
		Fingerprint: wire.Fingerprint,
		Pairs:       pairs,
	}, nil
}

func compress(compression Compression, dst io.Writer, data []byte) error {
	var w io.WriteCloser

	switch compression {
	case CompressionNone:
		_, err := dst.Write(data)

		return err
	case CompressionGzip:
		w = gzip.NewWriter(dst)
	case CompressionZstd:
		zw, err := zstd.NewWriter(dst)
		if err != nil {
			return err
		}

		w = zw
	case CompressionSnappy:
		w = snappy.NewBufferedWriter(dst)
	case CompressionLZ4:
		w = lz4.NewWriter(dst)
	case CompressionBrotli:
		w = brotli.NewWriter(dst)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCompression, compression)
	}

	if _, err := w.Write(data); err != nil {
		_ = w.Close()

		return err
	}

	return w.Close()
}

func decompress(compression Compression, data []byte, limit int64) ([]byte, error) {
	src := bytes.NewReader(data)

	var r io.Reader

	switch compression {
	case CompressionNone:
		r = src
	case CompressionGzip:
		gr, err := gzip.NewReader(src)
		if err != nil {
			return nil, err
		}
		defer gr.Close()

		r = gr
	case CompressionZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, err
		}
		defer zr.Close()

		r = zr
	case CompressionSnappy:
		r = snappy.NewReader(src)
	case CompressionLZ4:
		r = lz4.NewReader(src)
	case CompressionBrotli:
		r = brotli.NewReader(src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, compression)
	}

	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, limit)
	}

	return out, nil
}
