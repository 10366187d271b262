package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/dspctl/internal/convergence"
	"github.com/danmuck/dspctl/internal/dsp"
	"github.com/danmuck/dspctl/internal/participant"
)

// scenario.toml key mapping to a driver run.
type fileConfig struct {
	AssetID         string            `toml:"asset_id"`
	DeadlineMS      int64             `toml:"deadline_ms"`
	PollIntervalMS  int64             `toml:"poll_interval_ms"`
	TransferState   string            `toml:"transfer_state"`
	DestinationType string            `toml:"destination_type"`
	PullData        bool              `toml:"pull_data"`
	Provision       bool              `toml:"provision"`
	SourceBaseURL   string            `toml:"source_base_url"`
	Query           map[string]string `toml:"query"`
	Consumer        endpointConfig    `toml:"consumer"`
	Provider        endpointConfig    `toml:"provider"`
}

type endpointConfig struct {
	Name          string `toml:"name"`
	Identity      string `toml:"identity"`
	ManagementURL string `toml:"management_url"`
	ProtocolURL   string `toml:"protocol_url"`
	PublicDataURL string `toml:"public_data_url"`
	CallbackURL   string `toml:"callback_url"`
}

func (e endpointConfig) endpoint() (participant.Endpoint, error) {
	return participant.NewEndpoint(e.Name, e.Identity, e.ManagementURL, e.ProtocolURL, e.PublicDataURL, e.CallbackURL)
}

type runConfig struct {
	Scenario dsp.Scenario
	Wait     convergence.Config
}

// loadRunConfig decodes path over the scenario and wait defaults.
func loadRunConfig(path string) (runConfig, error) {
	cfg := runConfig{
		Scenario: dsp.DefaultScenario(),
		Wait:     convergence.DefaultConfig(),
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load scenario config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runConfig{}, fmt.Errorf("load scenario config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("asset_id") {
		cfg.Scenario.AssetID = strings.TrimSpace(raw.AssetID)
	}
	if meta.IsDefined("deadline_ms") {
		cfg.Wait.Deadline = time.Duration(raw.DeadlineMS) * time.Millisecond
	}
	if meta.IsDefined("poll_interval_ms") {
		cfg.Wait.Interval = time.Duration(raw.PollIntervalMS) * time.Millisecond
	}
	if meta.IsDefined("transfer_state") {
		cfg.Scenario.TransferState = dsp.TransferState(strings.ToUpper(strings.TrimSpace(raw.TransferState)))
	}
	if meta.IsDefined("destination_type") {
		cfg.Scenario.Destination = dsp.DataAddress(strings.TrimSpace(raw.DestinationType), nil)
	}
	if meta.IsDefined("pull_data") {
		cfg.Scenario.PullData = raw.PullData
	}
	if meta.IsDefined("query") {
		cfg.Scenario.Query = url.Values{}
		for k, v := range raw.Query {
			cfg.Scenario.Query.Set(k, v)
		}
	}

	if !meta.IsDefined("consumer") || !meta.IsDefined("provider") {
		return runConfig{}, fmt.Errorf("load scenario config: [consumer] and [provider] tables are required")
	}
	if cfg.Scenario.Consumer, err = raw.Consumer.endpoint(); err != nil {
		return runConfig{}, fmt.Errorf("load scenario config: consumer: %w", err)
	}
	if cfg.Scenario.Provider, err = raw.Provider.endpoint(); err != nil {
		return runConfig{}, fmt.Errorf("load scenario config: provider: %w", err)
	}

	if raw.Provision {
		source := strings.TrimSpace(raw.SourceBaseURL)
		if source == "" {
			return runConfig{}, fmt.Errorf("load scenario config: provision requires source_base_url")
		}
		cfg.Scenario.Provision = &dsp.Provisioning{
			Asset: dsp.Asset{
				ID:          cfg.Scenario.AssetID,
				DataAddress: dsp.HTTPDataSource(source),
			},
		}
	}

	cfg.Wait = cfg.Wait.WithDefaults()
	if err := cfg.Scenario.Validate(); err != nil {
		return runConfig{}, fmt.Errorf("load scenario config: %w", err)
	}
	return cfg, nil
}
