package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/amp-labs/keyed-array/logger"
	"github.com/amp-labs/keyed-array/scripting"
)

const (
	shellPrint  = "print"
	shellVerify = "verify"
	shellQuit   = "quit"
)

// Shell edits a local Name to float component interactively.
type Shell struct {
	ask       Asker
	out       io.Writer
	component *scripting.NameFloatComponent
}

// NewShell creates a shell over an authoritative component.
func NewShell(ask Asker, out io.Writer) *Shell {
	return &Shell{
		ask:       ask,
		out:       out,
		component: scripting.NewNameFloatComponent("shell"),
	}
}

// Component returns the component being edited.
func (s *Shell) Component() *scripting.NameFloatComponent {
	return s.component
}

// Run loops until the user quits or aborts a prompt.
func (s *Shell) Run(ctx context.Context) error {
	ctx = logger.WithSubsystem(ctx, "shell")
	choices := append(slices.Clone(Ops), shellPrint, shellVerify, shellQuit)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		op, err := s.ask.Select("Operation", choices)
		if err != nil {
			if IsAbort(err) {
				return nil
			}

			return err
		}

		switch op {
		case shellQuit:
			return nil
		case shellPrint:
			fmt.Fprint(s.out, RenderPairs(s.component.Pairs()))

			continue
		case shellVerify:
			if err := s.component.Verify(); err != nil {
				fmt.Fprintf(s.out, "inconsistent: %v\n", err)
			} else {
				fmt.Fprintln(s.out, "index consistent")
			}

			continue
		}

		step, err := s.readStep(op)
		if err != nil {
			if IsAbort(err) {
				return nil
			}

			return err
		}

		result, err := step.Apply(ctx, s.component)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)

			continue
		}

		fmt.Fprintln(s.out, result)
	}
}

func (s *Shell) readStep(op string) (Step, error) {
	step := Step{Op: op}

	var err error

	switch op {
	case OpAdd, OpEmplace, OpInsert, OpEmplaceAt:
		if step.Key, err = s.ask.String("Key"); err != nil {
			return step, err
		}

		if step.Value, err = s.ask.Float("Value"); err != nil {
			return step, err
		}

		if op == OpInsert || op == OpEmplaceAt {
			step.At, err = s.ask.Int("Position")
		}
	case OpRemove:
		step.Key, err = s.ask.String("Key")
	case OpRemoveAt:
		step.At, err = s.ask.Int("Position")
	case OpRemoveValue, OpRemoveAllValue:
		step.Value, err = s.ask.Float("Value")
	case OpClear:
		step.Reserve, err = s.ask.Int("Reserve")
	case OpReplace:
		var n int

		if n, err = s.ask.Int("Number of pairs"); err != nil {
			return step, err
		}

		for i := range n {
			var p PairSpec

			if p.Key, err = s.ask.String(fmt.Sprintf("Key %d", i+1)); err != nil {
				return step, err
			}

			if p.Value, err = s.ask.Float(fmt.Sprintf("Value %d", i+1)); err != nil {
				return step, err
			}

			step.Pairs = append(step.Pairs, p)
		}
	}

	return step, err
}
