package dsp

import (
	"context"
	"fmt"

	"github.com/danmuck/dspctl/internal/convergence"
	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/participant"
)

// Agreement is the outcome of a finalized negotiation.
type Agreement struct {
	NegotiationID string
	AgreementID   string
	AssetID       string
}

func (d *Driver) negotiationRequest(consumer, provider participant.Endpoint, offer jsonld.Offer) (jsonld.Object, error) {
	policy, err := d.resolver.Compact(offer.Policy)
	if err != nil {
		return nil, fmt.Errorf("compact offer %s: %w", offer.ID, err)
	}
	return jsonld.Object{
		jsonld.KeywordContext:          jsonld.DefaultContext(),
		jsonld.KeywordType:             jsonld.String(jsonld.EDC("NegotiationInitiateRequestDto")),
		jsonld.EDC("connectorId"):      jsonld.String(provider.Identity),
		jsonld.EDC("consumerId"):       jsonld.String(consumer.Identity),
		jsonld.EDC("providerId"):       jsonld.String(provider.Identity),
		jsonld.EDC("connectorAddress"): jsonld.String(provider.ProtocolAddress()),
		jsonld.EDC("protocol"):         jsonld.String(ProtocolName),
		jsonld.EDC("offer"): jsonld.Object{
			jsonld.EDC("offerId"): jsonld.String(offer.ID),
			jsonld.EDC("assetId"): jsonld.String(offer.Ref.Asset),
			jsonld.EDC("policy"):  policy,
		},
	}, nil
}

// InitiateNegotiation starts a negotiation for the dataset's first offer and
// returns the negotiation id.
func (d *Driver) InitiateNegotiation(ctx context.Context, consumer, provider participant.Endpoint, dataset jsonld.Dataset) (string, error) {
	var id string
	err := d.phase(PhaseNegotiate, func() error {
		offer, ok := dataset.Offer()
		if !ok {
			return fmt.Errorf("%w: dataset %q has no offer", jsonld.ErrDocumentResolution, dataset.Node.ID())
		}
		body, err := d.negotiationRequest(consumer, provider, offer)
		if err != nil {
			return err
		}
		resp, err := d.client.PostJSON(ctx, joinURL(consumer.ManagementURL, "v2/contractnegotiations"), body)
		if err != nil {
			return err
		}
		id = resp.ID()
		if id == "" {
			return fmt.Errorf("%w: negotiation response has no %s", ErrMissingField, jsonld.KeywordID)
		}
		d.logger.Info().Str("negotiation", id).Str("offer", offer.ID).Msg("negotiation requested")
		return nil
	})
	return id, err
}

func negotiationURL(consumer participant.Endpoint, id string, rest ...string) string {
	return joinURL(consumer.ManagementURL, append([]string{"v2/contractnegotiations", escape(id)}, rest...)...)
}

// NegotiationState reads the current state once.
func (d *Driver) NegotiationState(ctx context.Context, consumer participant.Endpoint, id string) (NegotiationState, error) {
	resp, err := d.client.GetJSON(ctx, negotiationURL(consumer, id, "state"))
	if err != nil {
		return "", err
	}
	state, ok := resp.PropertyText("state")
	if !ok || state == "" {
		return "", fmt.Errorf("%w: negotiation %s state", ErrMissingField, id)
	}
	return NegotiationState(state), nil
}

// Negotiation reads the full negotiation record once.
func (d *Driver) Negotiation(ctx context.Context, consumer participant.Endpoint, id string) (jsonld.Object, error) {
	return d.client.GetJSON(ctx, negotiationURL(consumer, id))
}

// AwaitNegotiationFinalized polls until the negotiation is FINALIZED. A
// terminal failure state stops the wait at once.
func (d *Driver) AwaitNegotiationFinalized(ctx context.Context, consumer participant.Endpoint, id string) error {
	return d.phase(PhaseFinalize, func() error {
		_, err := await(ctx, d, PhaseFinalize, func(ctx context.Context) convergence.Result[NegotiationState] {
			state, err := d.NegotiationState(ctx, consumer, id)
			if err != nil {
				return pollFailure[NegotiationState](d, err)
			}
			switch {
			case state.Finalized():
				return convergence.Converged(state)
			case state.Failed():
				return convergence.Fatal[NegotiationState](remoteTerminal("negotiation", id, string(state), d.negotiationDetail(ctx, consumer, id)))
			default:
				return convergence.Pending[NegotiationState](fmt.Errorf("negotiation %s in %s", id, state))
			}
		})
		if err != nil {
			return fmt.Errorf("negotiation %s: %w", id, err)
		}
		return nil
	})
}

// negotiationDetail fetches the remote error detail for diagnostics. An
// unreadable record yields an empty detail.
func (d *Driver) negotiationDetail(ctx context.Context, consumer participant.Endpoint, id string) string {
	resp, err := d.Negotiation(ctx, consumer, id)
	if err != nil {
		d.logger.Debug().Str("negotiation", id).Err(err).Msg("error detail unavailable")
		return ""
	}
	detail, _ := resp.PropertyText("errorDetail")
	return detail
}

// AwaitAgreementID polls the negotiation record until it carries a contract
// agreement id.
func (d *Driver) AwaitAgreementID(ctx context.Context, consumer participant.Endpoint, id string) (string, error) {
	var agreement string
	err := d.phase(PhaseAgreement, func() error {
		var err error
		agreement, err = await(ctx, d, PhaseAgreement, func(ctx context.Context) convergence.Result[string] {
			resp, err := d.Negotiation(ctx, consumer, id)
			if err != nil {
				return pollFailure[string](d, err)
			}
			if raw, ok := resp.PropertyText("state"); ok && NegotiationState(raw).Failed() {
				detail, _ := resp.PropertyText("errorDetail")
				return convergence.Fatal[string](remoteTerminal("negotiation", id, raw, detail))
			}
			v, ok := resp.Property("contractAgreementId")
			if !ok {
				return convergence.Pending[string](fmt.Errorf("%w: negotiation %s contractAgreementId", ErrMissingField, id))
			}
			agreementID, ok := stringValue(v)
			if !ok || agreementID == "" {
				return convergence.Pending[string](fmt.Errorf("negotiation %s agreement id not yet a string (%s)", id, v.Kind()))
			}
			return convergence.Converged(agreementID)
		})
		if err != nil {
			return fmt.Errorf("agreement for negotiation %s: %w", id, err)
		}
		d.logger.Info().Str("negotiation", id).Str("agreement", agreement).Msg("agreement resolved")
		return nil
	})
	return agreement, err
}

// NegotiateContract negotiates the dataset's first offer to an agreement.
func (d *Driver) NegotiateContract(ctx context.Context, consumer, provider participant.Endpoint, dataset jsonld.Dataset) (Agreement, error) {
	id, err := d.InitiateNegotiation(ctx, consumer, provider, dataset)
	if err != nil {
		return Agreement{}, err
	}
	if err := d.AwaitNegotiationFinalized(ctx, consumer, id); err != nil {
		return Agreement{NegotiationID: id}, err
	}
	agreementID, err := d.AwaitAgreementID(ctx, consumer, id)
	if err != nil {
		return Agreement{NegotiationID: id}, err
	}
	return Agreement{
		NegotiationID: id,
		AgreementID:   agreementID,
		AssetID:       dataset.AssetID(),
	}, nil
}

// stringValue unwraps expanded value shapes down to a string literal.
func stringValue(v jsonld.Value) (string, bool) {
	switch t := v.(type) {
	case jsonld.String:
		return string(t), true
	case jsonld.Array:
		if len(t) == 0 {
			return "", false
		}
		return stringValue(t[0])
	case jsonld.Object:
		if inner, ok := t.Get(jsonld.KeywordValue); ok {
			return stringValue(inner)
		}
	}
	return "", false
}
