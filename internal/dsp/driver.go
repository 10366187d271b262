package dsp

import (
	"context"
	"net/http"
	"time"

	"github.com/danmuck/dspctl/internal/convergence"
	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/observability"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// ProtocolName is the protocol identifier sent in every management request.
	ProtocolName = "dataspace-protocol-http"

	PhaseCatalog     = "catalog"
	PhaseNegotiate   = "negotiation"
	PhaseFinalize    = "finalize"
	PhaseAgreement   = "agreement"
	PhaseTransfer    = "transfer"
	PhaseTransferRun = "transfer_state"
	PhaseReference   = "data_reference"
	PhasePull        = "pull"
	PhaseProvision   = "provision"
)

// Config tunes a Driver. Fatal selects the polled-read failures that stop a
// wait at once; nil means DefaultFatal.
type Config struct {
	Wait        convergence.Config
	HTTPClient  *http.Client
	Processor   jsonld.Processor
	Logger      *zerolog.Logger
	Fatal       func(error) bool
	RecordStats bool
}

func DefaultConfig() Config {
	return Config{
		Wait:        convergence.DefaultConfig(),
		RecordStats: true,
	}
}

// Driver runs protocol phases against participant management APIs.
type Driver struct {
	client   *Client
	resolver *jsonld.Resolver
	wait     convergence.Config
	logger   zerolog.Logger
	fatal    func(error) bool
	stats    bool
}

func NewDriver(cfg Config) *Driver {
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	fatal := cfg.Fatal
	if fatal == nil {
		fatal = DefaultFatal
	}
	if cfg.RecordStats {
		observability.RegisterMetrics()
	}
	client := NewClient(cfg.HTTPClient)
	proc := cfg.Processor
	if proc == nil {
		proc = jsonld.NewGoldProcessorWithClient(client.http)
	}
	return &Driver{
		client:   client,
		resolver: jsonld.NewResolver(proc),
		wait:     cfg.Wait.WithDefaults(),
		logger:   logger.With().Str("component", "dsp").Logger(),
		fatal:    fatal,
		stats:    cfg.RecordStats,
	}
}

func (d *Driver) Client() *Client {
	return d.client
}

func (d *Driver) Resolver() *jsonld.Resolver {
	return d.resolver
}

func (d *Driver) WaitConfig() convergence.Config {
	return d.wait
}

// phase logs and times fn under name.
func (d *Driver) phase(name string, fn func() error) error {
	start := time.Now()
	d.logger.Info().Str("phase", name).Msg("phase start")
	err := fn()
	elapsed := time.Since(start)
	if d.stats {
		observability.RecordPhase(name, elapsed, err == nil)
	}
	if err != nil {
		d.logger.Error().Str("phase", name).Dur("elapsed", elapsed).Err(err).Msg("phase failed")
		return err
	}
	d.logger.Info().Str("phase", name).Dur("elapsed", elapsed).Msg("phase complete")
	return nil
}

// await runs probe under the driver's wait config, recording each outcome.
func await[T any](ctx context.Context, d *Driver, phase string, probe convergence.Probe[T]) (T, error) {
	attempt := 0
	return convergence.Await(ctx, d.wait, func(ctx context.Context) convergence.Result[T] {
		attempt++
		res := probe(ctx)
		if d.stats {
			observability.RecordProbe(phase, res.Outcome.String())
		}
		if res.Outcome == convergence.OutcomePending {
			d.logger.Debug().Str("phase", phase).Int("attempt", attempt).AnErr("reason", res.Err).Msg("probe pending")
		}
		return res
	})
}

// pollFailure classifies an error from a polled read with the driver's
// fatal class.
func pollFailure[T any](d *Driver, err error) convergence.Result[T] {
	if d.fatal(err) {
		return convergence.Fatal[T](err)
	}
	return convergence.Pending[T](err)
}
