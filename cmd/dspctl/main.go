package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/danmuck/dspctl/internal/logging"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "dspctl",
		Usage: "drive connectors through a dataspace protocol exchange",
		Description: `dspctl runs one asset exchange between a consumer and a provider
   connector: catalog discovery, contract negotiation, transfer and data pull.

   dspctl run executes a scenario file against live management APIs.

   dspctl stub serves an in-memory connector that answers every call the
   driver makes, with configurable convergence delays.`,
		Before: func(*cli.Context) error {
			logging.ConfigureRuntime()
			return nil
		},
		Commands: []*cli.Command{
			runCmd,
			stubCmd,
		},
	}

	sort.Sort(cli.CommandsByName(app.Commands))
	for _, c := range app.Commands {
		sort.Sort(cli.FlagsByName(c.Flags))
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "dspctl: %v\n", err)
		os.Exit(1)
	}
}
