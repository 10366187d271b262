package dsp

import (
	"context"
	"fmt"

	"github.com/danmuck/dspctl/internal/convergence"
	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/participant"
)

const (
	DestinationHTTPProxy = "HttpProxy"
	DestinationHTTPData  = "HttpData"
)

// TransferRequest asks the consumer to start a transfer under an agreement.
type TransferRequest struct {
	AgreementID string
	AssetID     string
	Destination jsonld.Object
}

// DataAddress builds a destination address of the given type with optional
// extra EDC properties.
func DataAddress(kind string, props map[string]string) jsonld.Object {
	addr := jsonld.Object{
		jsonld.KeywordType: jsonld.String(jsonld.EDC("DataAddress")),
		jsonld.EDC("type"): jsonld.String(kind),
	}
	for k, v := range props {
		addr[jsonld.EDC(k)] = jsonld.String(v)
	}
	return addr
}

func transferRequest(provider participant.Endpoint, req TransferRequest) jsonld.Object {
	dest := req.Destination
	if dest == nil {
		dest = DataAddress(DestinationHTTPProxy, nil)
	}
	return jsonld.Object{
		jsonld.KeywordContext:          jsonld.Object{jsonld.EDCPrefix: jsonld.String(jsonld.EDCNamespace)},
		jsonld.KeywordType:             jsonld.String(jsonld.EDC("TransferRequestDto")),
		jsonld.EDC("dataDestination"):  dest,
		jsonld.EDC("protocol"):         jsonld.String(ProtocolName),
		jsonld.EDC("assetId"):          jsonld.String(req.AssetID),
		jsonld.EDC("contractId"):       jsonld.String(req.AgreementID),
		jsonld.EDC("connectorId"):      jsonld.String(provider.Identity),
		jsonld.EDC("connectorAddress"): jsonld.String(provider.ProtocolAddress()),
	}
}

// InitiateTransfer starts a transfer process and returns its id.
func (d *Driver) InitiateTransfer(ctx context.Context, consumer, provider participant.Endpoint, req TransferRequest) (string, error) {
	var id string
	err := d.phase(PhaseTransfer, func() error {
		if req.AgreementID == "" {
			return fmt.Errorf("%w: transfer request has no agreement id", ErrMissingField)
		}
		resp, err := d.client.PostJSON(ctx, joinURL(consumer.ManagementURL, "v2/transferprocesses"), transferRequest(provider, req))
		if err != nil {
			return err
		}
		id = resp.ID()
		if id == "" {
			return fmt.Errorf("%w: transfer response has no %s", ErrMissingField, jsonld.KeywordID)
		}
		d.logger.Info().Str("transfer", id).Str("agreement", req.AgreementID).Msg("transfer requested")
		return nil
	})
	return id, err
}

// TransferState reads the transfer state once.
func (d *Driver) TransferState(ctx context.Context, consumer participant.Endpoint, id string) (TransferState, error) {
	resp, err := d.client.GetJSON(ctx, joinURL(consumer.ManagementURL, "transferprocess", escape(id), "state"))
	if err != nil {
		return "", err
	}
	state, ok := resp.PropertyText("state")
	if !ok || state == "" {
		return "", fmt.Errorf("%w: transfer %s state", ErrMissingField, id)
	}
	return TransferState(state), nil
}

// AwaitTransferState polls until the transfer reports target. TERMINATED and
// ERROR stop the wait at once.
func (d *Driver) AwaitTransferState(ctx context.Context, consumer participant.Endpoint, id string, target TransferState) (TransferState, error) {
	var state TransferState
	err := d.phase(PhaseTransferRun, func() error {
		var err error
		state, err = await(ctx, d, PhaseTransferRun, func(ctx context.Context) convergence.Result[TransferState] {
			current, err := d.TransferState(ctx, consumer, id)
			if err != nil {
				return pollFailure[TransferState](d, err)
			}
			switch {
			case current.Is(target):
				return convergence.Converged(current)
			case current.Failed() && !target.Failed():
				return convergence.Fatal[TransferState](remoteTerminal("transfer", id, string(current), ""))
			default:
				return convergence.Pending[TransferState](fmt.Errorf("transfer %s in %s, want %s", id, current, target))
			}
		})
		if err != nil {
			return fmt.Errorf("transfer %s: %w", id, err)
		}
		return nil
	})
	return state, err
}
