// Command keyedarray replays keyed array scenarios and hosts an interactive
// editing shell.
package main

import (
	"context"

	"github.com/amp-labs/keyed-array/cli"
	"github.com/amp-labs/keyed-array/script"
	"github.com/spf13/afero"
)

func main() {
	script.New("keyedarray").Run(func(ctx context.Context) error {
		return cli.NewRootCommand(afero.NewOsFs()).ExecuteContext(ctx)
	})
}
