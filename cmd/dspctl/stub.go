package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/dspctl/internal/stub"
	"github.com/urfave/cli/v2"
)

var stubFlags struct {
	addr          string
	name          string
	identity      string
	publicURL     string
	cors          cli.StringSlice
	emptyCatalog  int
	finalizeAfter int
	agreeAfter    int
	transferAfter int
	terminate     bool
	payloadFile   string
}

var stubCmd = &cli.Command{
	Name:        "stub",
	Usage:       "serve an in-memory connector",
	Description: "stub serves the management, callback and public data APIs of a connector from memory; point both scenario participants at it to exercise the driver without real connectors",
	Action:      runStub,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Value:       ":8181",
			Usage:       "listen address",
			Destination: &stubFlags.addr,
		},
		&cli.StringFlag{
			Name:        "name",
			Value:       "stub",
			Destination: &stubFlags.name,
		},
		&cli.StringFlag{
			Name:        "identity",
			Value:       "urn:connector:stub",
			Usage:       "participant id advertised in catalogs",
			Destination: &stubFlags.identity,
		},
		&cli.StringFlag{
			Name:        "public-url",
			Usage:       "absolute public data URL put in data references; derived from the request host when empty",
			Destination: &stubFlags.publicURL,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Destination: &stubFlags.cors,
		},
		&cli.IntFlag{
			Name:        "empty-catalog-polls",
			Usage:       "number of catalog requests answered with no datasets",
			Destination: &stubFlags.emptyCatalog,
		},
		&cli.IntFlag{
			Name:        "finalize-after",
			Value:       1,
			Usage:       "state poll on which a negotiation reports FINALIZED",
			Destination: &stubFlags.finalizeAfter,
		},
		&cli.IntFlag{
			Name:        "agreement-after",
			Value:       1,
			Usage:       "detail poll on which a finalized negotiation carries its agreement id",
			Destination: &stubFlags.agreeAfter,
		},
		&cli.IntFlag{
			Name:        "transfer-after",
			Value:       1,
			Usage:       "state poll on which a transfer starts",
			Destination: &stubFlags.transferAfter,
		},
		&cli.BoolFlag{
			Name:        "terminate",
			Usage:       "terminate every negotiation immediately",
			Destination: &stubFlags.terminate,
		},
		&cli.StringFlag{
			Name:        "payload-file",
			Usage:       "file served from the public data endpoint",
			TakesFile:   true,
			Destination: &stubFlags.payloadFile,
		},
	},
}

func stubOptions() (stub.Options, error) {
	opts := stub.DefaultOptions()
	opts.Name = strings.TrimSpace(stubFlags.name)
	opts.Identity = strings.TrimSpace(stubFlags.identity)
	opts.PublicURL = strings.TrimRight(strings.TrimSpace(stubFlags.publicURL), "/")
	opts.CORSOrigins = stubFlags.cors.Value()
	opts.EmptyCatalogPolls = stubFlags.emptyCatalog
	opts.FinalizeAfterPolls = stubFlags.finalizeAfter
	opts.AgreementAfterPolls = stubFlags.agreeAfter
	opts.TransferAfterPolls = stubFlags.transferAfter
	opts.TerminateNegotiation = stubFlags.terminate
	if path := strings.TrimSpace(stubFlags.payloadFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return stub.Options{}, fmt.Errorf("read payload: %w", err)
		}
		opts.Payload = data
	}
	return opts.WithDefaults(), nil
}

func runStub(_ *cli.Context) error {
	opts, err := stubOptions()
	if err != nil {
		return err
	}
	return stub.New(opts).Serve(stubFlags.addr)
}
