package scripting

import (
	"facette.io/natsort"
	"github.com/amp-labs/keyed-array/keyed"
	"github.com/amp-labs/keyed-array/replication"
	"github.com/google/uuid"
)

// Name is an interned-style identifier used as a key by scripting callers.
type Name string

// NoName is the zero Name, returned for missing keys.
const NoName Name = ""

type (
	NameFloatPair       = keyed.Pair[Name, float32]
	NameFloatKeyedArray = keyed.Sequence[Name, float32]
	NameFloatComponent  = replication.Component[Name, float32]
)

// NewNameFloatComponent creates a component holding Name to float32 pairs.
func NewNameFloatComponent(name string, opts ...replication.Option) *NameFloatComponent {
	return replication.NewComponent[Name, float32](name, opts...)
}

// Object is a reference type held by NameObject arrays. Two entries are equal
// only when they point at the same Object.
type Object struct {
	ID    uuid.UUID `json:"id"`
	Class string    `json:"class"`
}

// NewObject creates an Object with a fresh ID.
func NewObject(class string) *Object {
	return &Object{
		ID:    uuid.New(),
		Class: class,
	}
}

type (
	NameObjectPair       = keyed.Pair[Name, *Object]
	NameObjectKeyedArray = keyed.Sequence[Name, *Object]
	NameObjectComponent  = replication.Component[Name, *Object]
)

// NewNameObjectComponent creates a component holding Name to *Object pairs.
func NewNameObjectComponent(name string, opts ...replication.Option) *NameObjectComponent {
	return replication.NewComponent[Name, *Object](name, opts...)
}

// NaturalKeys returns the keys of s sorted naturally, so "item2" comes before
// "item10". The sequence order is not changed.
func NaturalKeys[V any](s *keyed.Sequence[Name, V]) []Name {
	raw := make([]string, 0, s.Len())
	for _, pair := range s.All() {
		raw = append(raw, string(pair.Key))
	}

	natsort.Sort(raw)

	out := make([]Name, len(raw))
	for i, key := range raw {
		out[i] = Name(key)
	}

	return out
}
