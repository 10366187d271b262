// Package participant holds connector identities and addresses, plus the
// bootstrap settings a connector process is launched with.
package participant

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hashicorp/go-multierror"
)

const ProtocolPath = "/protocol"

// Endpoint is one connector's identity and network addresses. It is a
// value: copy it freely, never mutate a shared one.
type Endpoint struct {
	Name          string
	Identity      string
	ManagementURL string
	ProtocolURL   string
	PublicDataURL string
	CallbackURL   string
}

// NewEndpoint trims and validates the given addresses.
func NewEndpoint(name, identity, management, protocol, public, callback string) (Endpoint, error) {
	ep := Endpoint{
		Name:          strings.TrimSpace(name),
		Identity:      strings.TrimSpace(identity),
		ManagementURL: strings.TrimRight(strings.TrimSpace(management), "/"),
		ProtocolURL:   strings.TrimRight(strings.TrimSpace(protocol), "/"),
		PublicDataURL: strings.TrimRight(strings.TrimSpace(public), "/"),
		CallbackURL:   strings.TrimRight(strings.TrimSpace(callback), "/"),
	}
	if err := ep.Validate(); err != nil {
		return Endpoint{}, err
	}
	return ep, nil
}

// Validate reports every missing or unparsable field at once.
func (e Endpoint) Validate() error {
	var merr *multierror.Error
	if strings.TrimSpace(e.Identity) == "" {
		merr = multierror.Append(merr, fmt.Errorf("participant %q: identity is required", e.Name))
	}
	for _, f := range []struct {
		name     string
		value    string
		required bool
	}{
		{"management_url", e.ManagementURL, true},
		{"protocol_url", e.ProtocolURL, true},
		{"public_data_url", e.PublicDataURL, false},
		{"callback_url", e.CallbackURL, false},
	} {
		if strings.TrimSpace(f.value) == "" {
			if f.required {
				merr = multierror.Append(merr, fmt.Errorf("participant %q: %s is required", e.Name, f.name))
			}
			continue
		}
		u, err := url.Parse(f.value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			merr = multierror.Append(merr, fmt.Errorf("participant %q: %s %q is not an absolute URL", e.Name, f.name, f.value))
		}
	}
	return merr.ErrorOrNil()
}

// ProtocolAddress is the dataspace protocol address peers dial.
func (e Endpoint) ProtocolAddress() string {
	return e.ProtocolURL + ProtocolPath
}

func (e Endpoint) String() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Identity
}
