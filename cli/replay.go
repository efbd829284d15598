package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/keyed-array/logger"
	"github.com/amp-labs/keyed-array/replication"
	"github.com/amp-labs/keyed-array/scripting"
)

// ErrReplicaDiverged is returned when a replica does not end up with the
// owner's pairs or fails verification.
var ErrReplicaDiverged = errors.New("replica diverged from owner")

const defaultReplicas = 2

// ReplayOptions overrides scenario settings. Zero values defer to the
// scenario, then to the environment.
type ReplayOptions struct {
	Compression string
	Replicas    int
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Step    int
	Op      string
	Result  string
	Changed int
}

// ReplicaReport describes one replica after the replay.
type ReplicaReport struct {
	Name       string
	Keys       []scripting.Name
	Consistent bool
	Err        error
}

// Report is the result of a replay.
type Report struct {
	Scenario    string
	Compression replication.Compression
	Steps       []StepResult
	Pairs       []scripting.NameFloatPair
	Replicas    []ReplicaReport
}

// Diverged returns ErrReplicaDiverged joined with every replica problem, or nil.
func (r *Report) Diverged() error {
	var errs []error

	for _, rep := range r.Replicas {
		if !rep.Consistent {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrReplicaDiverged, rep.Name, rep.Err))
		}
	}

	return errors.Join(errs...)
}

func resolve(sc *Scenario, opts ReplayOptions) (replication.Config, int, error) {
	cfg, err := replication.ConfigFromEnv()
	if err != nil {
		return cfg, 0, err
	}

	name := opts.Compression
	if name == "" {
		name = sc.Compression
	}

	if name != "" {
		cfg.Compression, err = replication.ParseCompression(name)
		if err != nil {
			return cfg, 0, err
		}
	}

	replicas := opts.Replicas
	if replicas <= 0 {
		replicas = sc.Replicas
	}

	if replicas <= 0 {
		replicas = defaultReplicas
	}

	return cfg, replicas, nil
}

// Replay applies the scenario to an owner component, replicating every change
// to a set of proxy components through a hub.
func Replay(ctx context.Context, sc *Scenario, opts ReplayOptions) (*Report, error) {
	cfg, replicaCount, err := resolve(sc, opts)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithSubsystem(ctx, "replay")
	log := logger.Get(ctx)

	owner := scripting.NewNameFloatComponent(sc.Name, replication.WithCompression(cfg.Compression))

	hub := replication.NewHubFromConfig[scripting.Name, float32](sc.Name, cfg)
	defer hub.Close()

	for i := range replicaCount {
		hub.Register(scripting.NewNameFloatComponent(
			fmt.Sprintf("%s-replica-%d", sc.Name, i+1),
			replication.WithAuthority(replication.Proxy())))
	}

	report := &Report{
		Scenario:    sc.Name,
		Compression: cfg.Compression,
	}

	for i, step := range sc.Steps {
		result, err := step.Apply(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}

		changed, err := hub.Replicate(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("step %d: replicating: %w", i+1, err)
		}

		log.Debug("step applied", "step", i+1, "op", step.Op, "result", result, "replicasChanged", changed)

		report.Steps = append(report.Steps, StepResult{
			Step:    i + 1,
			Op:      step.Op,
			Result:  result,
			Changed: changed,
		})
	}

	report.Pairs = owner.Pairs()

	for _, replica := range hub.Replicas() {
		rep := ReplicaReport{
			Name: replica.Name(),
			Keys: replica.Keys(),
		}

		switch err := replica.Verify(); {
		case err != nil:
			rep.Err = err
		case !slices.Equal(report.Pairs, replica.Pairs()):
			rep.Err = fmt.Errorf("pairs %v, owner has %v", replica.Pairs(), report.Pairs) //nolint:err113
		default:
			rep.Consistent = true
		}

		report.Replicas = append(report.Replicas, rep)
	}

	return report, nil
}
