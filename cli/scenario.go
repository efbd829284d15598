package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amp-labs/keyed-array/scripting"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownOp     = errors.New("unknown operation")
	ErrMissingKey    = errors.New("operation needs a key")
	ErrEmptyScenario = errors.New("scenario has no steps")
	ErrNoAuthority   = errors.New("component rejected the mutation")
)

// Operation names accepted in scenarios and by the shell.
const (
	OpAdd            = "add"
	OpEmplace        = "emplace"
	OpInsert         = "insert"
	OpEmplaceAt      = "emplaceAt"
	OpRemove         = "remove"
	OpRemoveAt       = "removeAt"
	OpRemoveValue    = "removeValue"
	OpRemoveAllValue = "removeAllValue"
	OpClear          = "clear"
	OpReplace        = "replace"
)

// Ops lists every operation in display order.
var Ops = []string{ //nolint:gochecknoglobals
	OpAdd, OpEmplace, OpInsert, OpEmplaceAt, OpRemove, OpRemoveAt,
	OpRemoveValue, OpRemoveAllValue, OpClear, OpReplace,
}

// Scenario is a replayable list of operations on a Name to float array.
type Scenario struct {
	Name        string `yaml:"name"`
	Compression string `yaml:"compression"`
	Replicas    int    `yaml:"replicas"`
	Steps       []Step `yaml:"steps"`
}

// PairSpec is one pair in a replace step.
type PairSpec struct {
	Key   string  `yaml:"key"`
	Value float32 `yaml:"value"`
}

// Step is one operation. Fields that an operation does not use are ignored.
type Step struct {
	Op      string     `yaml:"op"`
	Key     string     `yaml:"key"`
	Value   float32    `yaml:"value"`
	At      int        `yaml:"at"`
	Reserve int        `yaml:"reserve"`
	Pairs   []PairSpec `yaml:"pairs"`
}

// Validate checks the operation name and required fields.
func (s Step) Validate() error {
	switch s.Op {
	case OpAdd, OpEmplace, OpInsert, OpEmplaceAt, OpRemove:
		if s.Key == "" {
			return fmt.Errorf("%w: %s", ErrMissingKey, s.Op)
		}
	case OpRemoveAt, OpRemoveValue, OpRemoveAllValue, OpClear, OpReplace:
	default:
		return fmt.Errorf("%w: %q (expected one of %s)", ErrUnknownOp, s.Op, strings.Join(Ops, ", "))
	}

	return nil
}

// Apply runs the step against c and describes the outcome.
func (s Step) Apply(ctx context.Context, c *scripting.NameFloatComponent) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	key := scripting.Name(s.Key)

	switch s.Op {
	case OpAdd, OpEmplace, OpInsert, OpEmplaceAt:
		var pos int

		switch s.Op {
		case OpAdd:
			pos = scripting.Add(ctx, c, key, s.Value)
		case OpEmplace:
			pos = scripting.Emplace(ctx, c, key, s.Value)
		case OpEmplaceAt:
			pos = scripting.EmplaceAt(ctx, c, key, s.Value, s.At)
		default:
			pos = c.Insert(ctx, key, s.Value, s.At)
		}

		if pos < 0 {
			return "", ErrNoAuthority
		}

		return fmt.Sprintf("%s %s=%g at %d", s.Op, key, s.Value, pos), nil
	case OpRemove:
		return fmt.Sprintf("remove %s: %t", key, scripting.Remove(ctx, c, key)), nil
	case OpRemoveAt:
		return fmt.Sprintf("removeAt %d: %t", s.At, scripting.RemoveAt(ctx, c, s.At)), nil
	case OpRemoveValue:
		return fmt.Sprintf("removeValue %g: position %d", s.Value, scripting.RemoveFirstValue(ctx, c, s.Value)), nil
	case OpRemoveAllValue:
		return fmt.Sprintf("removeAllValue %g: %d removed", s.Value, scripting.RemoveAllValue(ctx, c, s.Value)), nil
	case OpClear:
		scripting.Empty(ctx, c, s.Reserve)

		return "clear", nil
	default:
		pairs := make([]scripting.NameFloatPair, len(s.Pairs))
		for i, p := range s.Pairs {
			pairs[i] = scripting.NameFloatPair{Key: scripting.Name(p.Key), Value: p.Value}
		}

		if !c.Replace(ctx, pairs) {
			return "", ErrNoAuthority
		}

		return fmt.Sprintf("replace with %d pairs", len(pairs)), nil
	}
}

// ParseScenario decodes a YAML scenario. Unknown fields are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("decoding scenario: %w", err)
	}

	if len(sc.Steps) == 0 {
		return nil, ErrEmptyScenario
	}

	for i, step := range sc.Steps {
		if err := step.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	return &sc, nil
}

// LoadScenario reads and parses the scenario at path on fs.
func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if sc.Name == "" {
		sc.Name = path
	}

	return sc, nil
}
