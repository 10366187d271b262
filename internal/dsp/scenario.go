package dsp

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/participant"
	"github.com/hashicorp/go-multierror"
)

// Scenario is one end-to-end exchange of a single asset between two
// participants.
type Scenario struct {
	Consumer participant.Endpoint
	Provider participant.Endpoint
	AssetID  string

	// Provision, when set, is applied to the provider before discovery.
	Provision *Provisioning

	Destination   jsonld.Object
	TransferState TransferState
	PullData      bool
	Query         url.Values
}

func DefaultScenario() Scenario {
	return Scenario{
		Destination:   DataAddress(DestinationHTTPProxy, nil),
		TransferState: TransferStarted,
		PullData:      true,
	}
}

func (s Scenario) Validate() error {
	var merr *multierror.Error
	if err := s.Consumer.Validate(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("consumer: %w", err))
	}
	if err := s.Provider.Validate(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("provider: %w", err))
	}
	if s.AssetID == "" {
		merr = multierror.Append(merr, fmt.Errorf("asset id is required"))
	}
	if s.Provision != nil && s.Provision.Asset.ID != s.AssetID {
		merr = multierror.Append(merr, fmt.Errorf("provisioned asset %q does not match scenario asset %q", s.Provision.Asset.ID, s.AssetID))
	}
	if s.TransferState == "" {
		merr = multierror.Append(merr, fmt.Errorf("transfer target state is required"))
	}
	if s.PullData && s.Consumer.CallbackURL == "" {
		merr = multierror.Append(merr, fmt.Errorf("pulling data requires a consumer callback_url"))
	}
	if s.PullData && !s.TransferState.Is(TransferStarted) {
		merr = multierror.Append(merr, fmt.Errorf("pulling data requires target state %s, got %s", TransferStarted, s.TransferState))
	}
	return merr.ErrorOrNil()
}

// Report collects every artifact a run produced, including those of phases
// completed before a failure.
type Report struct {
	AssetID       string
	DatasetID     string
	OfferID       string
	Provisioned   *Provisioned
	NegotiationID string
	AgreementID   string
	TransferID    string
	TransferState TransferState
	Reference     *EndpointDataReference
	Data          []byte
	Elapsed       time.Duration
}

// Run drives s from discovery to data retrieval. Phases run strictly in
// order; the first failure ends the run.
func (d *Driver) Run(ctx context.Context, s Scenario) (Report, error) {
	start := time.Now()
	report := Report{AssetID: s.AssetID}
	finish := func(err error) (Report, error) {
		report.Elapsed = time.Since(start)
		if err != nil {
			d.logger.Error().Str("asset", s.AssetID).Dur("elapsed", report.Elapsed).Err(err).Msg("scenario failed")
			return report, err
		}
		d.logger.Info().Str("asset", s.AssetID).Dur("elapsed", report.Elapsed).Msg("scenario complete")
		return report, nil
	}

	if err := s.Validate(); err != nil {
		return finish(fmt.Errorf("dsp: invalid scenario: %w", err))
	}
	d.logger.Info().
		Str("consumer", s.Consumer.String()).
		Str("provider", s.Provider.String()).
		Str("asset", s.AssetID).
		Msg("scenario start")

	if s.Provision != nil {
		provisioned, err := d.Provision(ctx, s.Provider, *s.Provision)
		if err != nil {
			return finish(err)
		}
		report.Provisioned = &provisioned
	}

	dataset, err := d.DatasetForAsset(ctx, s.Consumer, s.Provider, s.AssetID)
	if err != nil {
		return finish(err)
	}
	report.DatasetID = dataset.Node.ID()
	if offer, ok := dataset.Offer(); ok {
		report.OfferID = offer.ID
	}

	agreement, err := d.NegotiateContract(ctx, s.Consumer, s.Provider, dataset)
	report.NegotiationID = agreement.NegotiationID
	if err != nil {
		return finish(err)
	}
	report.AgreementID = agreement.AgreementID

	transferID, err := d.InitiateTransfer(ctx, s.Consumer, s.Provider, TransferRequest{
		AgreementID: agreement.AgreementID,
		AssetID:     s.AssetID,
		Destination: s.Destination,
	})
	if err != nil {
		return finish(err)
	}
	report.TransferID = transferID

	state, err := d.AwaitTransferState(ctx, s.Consumer, transferID, s.TransferState)
	report.TransferState = state
	if err != nil {
		return finish(err)
	}
	if !s.PullData {
		return finish(nil)
	}

	edr, err := d.AwaitDataReference(ctx, s.Consumer, transferID)
	if err != nil {
		return finish(err)
	}
	report.Reference = &edr

	data, err := d.PullData(ctx, edr, s.Query)
	if err != nil {
		return finish(err)
	}
	report.Data = data
	return finish(nil)
}
