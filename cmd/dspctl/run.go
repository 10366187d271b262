package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/dspctl/internal/dsp"
	"github.com/urfave/cli/v2"
)

var runFlags struct {
	config   string
	deadline time.Duration
	interval time.Duration
}

var runCmd = &cli.Command{
	Name:        "run",
	Usage:       "run a scenario against two connectors",
	Description: "run discovers the asset in the provider catalog, negotiates a contract, starts a transfer and optionally pulls the data, as described by a scenario TOML file",
	Action:      runScenario,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "scenario TOML file",
			Required:    true,
			TakesFile:   true,
			Destination: &runFlags.config,
		},
		&cli.DurationFlag{
			Name:        "deadline",
			Usage:       "override the per-phase convergence deadline",
			Destination: &runFlags.deadline,
		},
		&cli.DurationFlag{
			Name:        "interval",
			Usage:       "override the poll interval",
			Destination: &runFlags.interval,
		},
	},
}

func runScenario(c *cli.Context) error {
	cfg, err := loadRunConfig(runFlags.config)
	if err != nil {
		return err
	}
	if runFlags.deadline > 0 {
		cfg.Wait.Deadline = runFlags.deadline
	}
	if runFlags.interval > 0 {
		cfg.Wait.Interval = runFlags.interval
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	driverCfg := dsp.DefaultConfig()
	driverCfg.Wait = cfg.Wait
	report, err := dsp.NewDriver(driverCfg).Run(ctx, cfg.Scenario)
	printReport(c.App.Writer, report)
	return err
}

func printReport(w io.Writer, r dsp.Report) {
	if w == nil {
		w = os.Stdout
	}
	rows := []struct {
		name  string
		value string
	}{
		{"asset", r.AssetID},
		{"dataset", r.DatasetID},
		{"offer", r.OfferID},
		{"negotiation", r.NegotiationID},
		{"agreement", r.AgreementID},
		{"transfer", r.TransferID},
		{"state", string(r.TransferState)},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		fmt.Fprintf(w, "%-12s %s\n", row.name, row.value)
	}
	if r.Reference != nil {
		fmt.Fprintf(w, "%-12s %s\n", "endpoint", r.Reference.Endpoint)
	}
	if r.Data != nil {
		fmt.Fprintf(w, "%-12s %d bytes\n", "data", len(r.Data))
	}
	fmt.Fprintf(w, "%-12s %s\n", "elapsed", r.Elapsed.Round(time.Millisecond))
}

