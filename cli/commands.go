// Package cli implements the keyedarray command: replaying YAML scenarios
// against a replicated keyed array and an interactive editing shell.
package cli

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the keyedarray command tree. Scenario files are read
// from fs.
func NewRootCommand(fs afero.Fs) *cobra.Command {
	root := &cobra.Command{
		Use:   "keyedarray",
		Short: "Ordered keyed arrays with replication",
		Long: `keyedarray exercises an ordered keyed array and its replication.

Scenarios are YAML files listing operations. Each operation is applied to an
authoritative array and then replicated to proxies, which must end up with the
same pairs in the same order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReplayCommand(fs), newShellCommand())

	return root
}

func newReplayCommand(fs afero.Fs) *cobra.Command {
	var opts ReplayOptions

	cmd := &cobra.Command{
		Use:   "replay <scenario.yaml>",
		Short: "Replay a scenario and check that replicas converge",
		Long: `Replay a scenario file.

Example scenario:

  name: inventory
  compression: zstd
  replicas: 2
  steps:
    - op: add
      key: sword
      value: 1
    - op: insert
      key: shield
      value: 2
      at: 0
    - op: remove
      key: sword`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := LoadScenario(fs, args[0])
			if err != nil {
				return err
			}

			report, err := Replay(cmd.Context(), sc, opts)
			if err != nil {
				return err
			}

			if err := RenderReport(cmd.OutOrStdout(), report, TerminalWidth()); err != nil {
				return err
			}

			return report.Diverged()
		},
	}

	cmd.Flags().StringVar(&opts.Compression, "compression", "",
		"Payload compression: none, gzip, zstd, snappy, lz4 or brotli (default from scenario or KEYEDARRAY_COMPRESSION)")
	cmd.Flags().IntVar(&opts.Replicas, "replicas", 0, "Number of replicas (default from scenario, then 2)")

	return cmd
}

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit a keyed array interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shell := NewShell(NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), cmd.OutOrStdout())

			return shell.Run(cmd.Context())
		},
	}
}
