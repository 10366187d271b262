package participant

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// WebContext is one HTTP listener of a connector process.
type WebContext struct {
	Port int    `toml:"port"`
	Path string `toml:"path"`
}

type RetrySettings struct {
	SendLimit   int `toml:"send_limit"`
	BaseDelayMS int `toml:"base_delay_ms"`
}

// StoreSettings selects the persistence backend of a control plane.
type StoreSettings struct {
	Kind     string `toml:"kind"`
	URL      string `toml:"url,omitempty"`
	User     string `toml:"user,omitempty"`
	Password string `toml:"password,omitempty"`
	Database string `toml:"database,omitempty"`
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreCosmos   = "cosmos"
)

type ControlPlaneSettings struct {
	ParticipantID    string        `toml:"participant_id"`
	Default          WebContext    `toml:"web_default"`
	Protocol         WebContext    `toml:"web_protocol"`
	Management       WebContext    `toml:"web_management"`
	Control          WebContext    `toml:"web_control"`
	CallbackAddress  string        `toml:"callback_address"`
	ReceiverEndpoint string        `toml:"receiver_endpoint"`
	ProxyEndpoint    string        `toml:"proxy_endpoint"`
	Transfer         RetrySettings `toml:"transfer_retry"`
	Negotiation      RetrySettings `toml:"negotiation_retry"`
	Store            StoreSettings `toml:"store"`
}

type DataPlaneSettings struct {
	Default                 WebContext `toml:"web_default"`
	Public                  WebContext `toml:"web_public"`
	Control                 WebContext `toml:"web_control"`
	TokenValidationEndpoint string     `toml:"token_validation_endpoint"`
}

// Bootstrap is the full launch record for one participant.
type Bootstrap struct {
	Name         string               `toml:"name"`
	ControlPlane ControlPlaneSettings `toml:"control_plane"`
	DataPlane    DataPlaneSettings    `toml:"data_plane"`
}

// ErrNoPublicURL rejects bootstrap derivation for an endpoint without a
// public data address.
var ErrNoPublicURL = errors.New("participant: public_data_url is required for a bootstrap")

// BootstrapOptions carries what cannot be derived from an Endpoint.
type BootstrapOptions struct {
	ControlPort      int
	ControlPlanePort int
	DataPlanePort    int
	DataControlPort  int
	Store            StoreSettings
}

// NewBootstrap derives control-plane and data-plane settings from ep.
func NewBootstrap(ep Endpoint, opts BootstrapOptions) (Bootstrap, error) {
	if err := ep.Validate(); err != nil {
		return Bootstrap{}, err
	}
	protocol, err := webContext(ep.ProtocolURL, ProtocolPath)
	if err != nil {
		return Bootstrap{}, fmt.Errorf("participant %q protocol: %w", ep.Name, err)
	}
	management, err := webContext(ep.ManagementURL, "")
	if err != nil {
		return Bootstrap{}, fmt.Errorf("participant %q management: %w", ep.Name, err)
	}
	if ep.PublicDataURL == "" {
		return Bootstrap{}, fmt.Errorf("%w: participant %q", ErrNoPublicURL, ep.Name)
	}
	public, err := webContext(ep.PublicDataURL, "/public")
	if err != nil {
		return Bootstrap{}, fmt.Errorf("participant %q public: %w", ep.Name, err)
	}
	store := opts.Store
	if strings.TrimSpace(store.Kind) == "" {
		store.Kind = StoreMemory
	}

	controlURL := "http://localhost:" + strconv.Itoa(opts.ControlPort) + "/control"
	cp := ControlPlaneSettings{
		ParticipantID:   ep.Identity,
		Default:         WebContext{Port: opts.ControlPlanePort, Path: "/api"},
		Protocol:        protocol,
		Management:      management,
		Control:         WebContext{Port: opts.ControlPort, Path: "/control"},
		CallbackAddress: ep.ProtocolAddress(),
		ProxyEndpoint:   ep.PublicDataURL,
		Transfer:        RetrySettings{SendLimit: 1, BaseDelayMS: 100},
		Negotiation:     RetrySettings{SendLimit: 1, BaseDelayMS: 100},
		Store:           store,
	}
	if ep.CallbackURL != "" {
		cp.ReceiverEndpoint = ep.CallbackURL + "/api/consumer/dataReference"
	}
	dp := DataPlaneSettings{
		Default:                 WebContext{Port: opts.DataPlanePort, Path: "/api"},
		Public:                  public,
		Control:                 WebContext{Port: opts.DataControlPort, Path: "/control"},
		TokenValidationEndpoint: controlURL + "/token",
	}
	return Bootstrap{Name: ep.Name, ControlPlane: cp, DataPlane: dp}, nil
}

// Properties flattens the control plane settings into the dotted key form
// connector launchers read.
func (c ControlPlaneSettings) Properties() map[string]string {
	props := map[string]string{
		"edc.participant.id":                                c.ParticipantID,
		"web.http.port":                                     strconv.Itoa(c.Default.Port),
		"web.http.path":                                     c.Default.Path,
		"web.http.protocol.port":                            strconv.Itoa(c.Protocol.Port),
		"web.http.protocol.path":                            c.Protocol.Path,
		"web.http.management.port":                          strconv.Itoa(c.Management.Port),
		"web.http.management.path":                          c.Management.Path,
		"web.http.control.port":                             strconv.Itoa(c.Control.Port),
		"web.http.control.path":                             c.Control.Path,
		"edc.dsp.callback.address":                          c.CallbackAddress,
		"edc.transfer.proxy.endpoint":                       c.ProxyEndpoint,
		"edc.transfer.send.retry.limit":                     strconv.Itoa(c.Transfer.SendLimit),
		"edc.transfer.send.retry.base-delay.ms":             strconv.Itoa(c.Transfer.BaseDelayMS),
		"edc.negotiation.consumer.send.retry.limit":         strconv.Itoa(c.Negotiation.SendLimit),
		"edc.negotiation.provider.send.retry.limit":         strconv.Itoa(c.Negotiation.SendLimit),
		"edc.negotiation.consumer.send.retry.base-delay.ms": strconv.Itoa(c.Negotiation.BaseDelayMS),
		"edc.negotiation.provider.send.retry.base-delay.ms": strconv.Itoa(c.Negotiation.BaseDelayMS),
	}
	if c.ReceiverEndpoint != "" {
		props["edc.receiver.http.endpoint"] = c.ReceiverEndpoint
	}
	switch c.Store.Kind {
	case StorePostgres:
		for _, store := range []string{"asset", "contractdefinition", "contractnegotiation", "policy", "transferprocess"} {
			prefix := "edc.datasource." + store
			props[prefix+".name"] = store
			props[prefix+".url"] = c.Store.URL
			props[prefix+".user"] = c.Store.User
			props[prefix+".password"] = c.Store.Password
		}
	case StoreCosmos:
		for _, store := range []string{"assetindex", "contractdefinitionstore", "contractnegotiationstore", "policystore"} {
			prefix := "edc." + store + ".cosmos"
			props[prefix+".account-name"] = c.Store.User
			props[prefix+".database-name"] = c.Store.Database
			props[prefix+".container-name"] = store
		}
	}
	return props
}

func (d DataPlaneSettings) Properties() map[string]string {
	return map[string]string{
		"web.http.port":                           strconv.Itoa(d.Default.Port),
		"web.http.path":                           d.Default.Path,
		"web.http.public.port":                    strconv.Itoa(d.Public.Port),
		"web.http.public.path":                    d.Public.Path,
		"web.http.control.port":                   strconv.Itoa(d.Control.Port),
		"web.http.control.path":                   d.Control.Path,
		"edc.dataplane.token.validation.endpoint": d.TokenValidationEndpoint,
	}
}

// PropertyKeys returns the keys of props in sorted order.
func PropertyKeys(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func webContext(raw, fallbackPath string) (WebContext, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return WebContext{}, err
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		switch u.Scheme {
		case "https":
			port = 443
		case "http":
			port = 80
		default:
			return WebContext{}, fmt.Errorf("no port in %q", raw)
		}
	}
	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		path = fallbackPath
	}
	return WebContext{Port: port, Path: path}, nil
}
