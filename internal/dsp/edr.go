package dsp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/danmuck/dspctl/internal/auth"
	"github.com/danmuck/dspctl/internal/convergence"
	"github.com/danmuck/dspctl/internal/participant"
)

// EndpointDataReference grants access to a started pull transfer.
type EndpointDataReference struct {
	ID         string            `json:"id"`
	Endpoint   string            `json:"endpoint"`
	AuthKey    string            `json:"authKey"`
	AuthCode   string            `json:"authCode"`
	Properties map[string]string `json:"properties,omitempty"`
}

func (e EndpointDataReference) Credential() auth.Credential {
	return auth.Credential{Key: e.AuthKey, Code: e.AuthCode}
}

func (e EndpointDataReference) validate() error {
	if strings.TrimSpace(e.Endpoint) == "" {
		return fmt.Errorf("%w: data reference %s endpoint", ErrMissingField, e.ID)
	}
	if strings.TrimSpace(e.AuthKey) == "" {
		return fmt.Errorf("%w: data reference %s authKey", ErrMissingField, e.ID)
	}
	return nil
}

func decodeDataReference(data []byte) (EndpointDataReference, error) {
	var edr EndpointDataReference
	if err := json.Unmarshal(data, &edr); err != nil {
		return EndpointDataReference{}, fmt.Errorf("dsp: decode data reference: %w", err)
	}
	if err := edr.validate(); err != nil {
		return EndpointDataReference{}, err
	}
	return edr, nil
}

// AwaitDataReference polls the consumer backend until the data reference
// for transfer id has been delivered.
func (d *Driver) AwaitDataReference(ctx context.Context, consumer participant.Endpoint, id string) (EndpointDataReference, error) {
	var edr EndpointDataReference
	err := d.phase(PhaseReference, func() error {
		var err error
		target := joinURL(consumer.CallbackURL, "api/consumer/dataReference", escape(id))
		edr, err = await(ctx, d, PhaseReference, func(ctx context.Context) convergence.Result[EndpointDataReference] {
			data, err := d.client.do(ctx, request{method: http.MethodGet, url: target})
			if err != nil {
				return pollFailure[EndpointDataReference](d, err)
			}
			ref, err := decodeDataReference(data)
			if err != nil {
				return convergence.Pending[EndpointDataReference](err)
			}
			return convergence.Converged(ref)
		})
		if err != nil {
			return fmt.Errorf("data reference for transfer %s: %w", id, err)
		}
		d.logger.Info().Str("transfer", id).Str("endpoint", edr.Endpoint).Msg("data reference received")
		return nil
	})
	return edr, err
}

// PullData fetches the payload behind edr. A non-2xx response is a
// *TransportError.
func (d *Driver) PullData(ctx context.Context, edr EndpointDataReference, query url.Values) ([]byte, error) {
	var data []byte
	err := d.phase(PhasePull, func() error {
		if err := edr.validate(); err != nil {
			return err
		}
		header := http.Header{}
		edr.Credential().Apply(header)
		var err error
		data, err = d.client.do(ctx, request{method: http.MethodGet, url: edr.Endpoint, header: header, query: query})
		if err != nil {
			return err
		}
		d.logger.Info().Str("endpoint", edr.Endpoint).Int("bytes", len(data)).Msg("data pulled")
		return nil
	})
	return data, err
}
