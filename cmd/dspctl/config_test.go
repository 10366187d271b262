package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/dspctl/internal/config"
	"github.com/danmuck/dspctl/internal/dsp"
	"github.com/danmuck/dspctl/internal/testutil/testlog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadRunConfigFromTemplate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "scenario.toml")
	if err := config.WriteTemplate(path, "scenario", false); err != nil {
		t.Fatalf("write template: %v", err)
	}

	cfg, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Scenario.AssetID != "asset-1" {
		t.Fatalf("unexpected asset id %q", cfg.Scenario.AssetID)
	}
	if cfg.Wait.Deadline != 30*time.Second || cfg.Wait.Interval != 100*time.Millisecond {
		t.Fatalf("unexpected wait config %+v", cfg.Wait)
	}
	if !cfg.Scenario.TransferState.Is(dsp.TransferStarted) || !cfg.Scenario.PullData {
		t.Fatalf("unexpected transfer settings: %s pull=%v", cfg.Scenario.TransferState, cfg.Scenario.PullData)
	}
	if cfg.Scenario.Provision == nil || cfg.Scenario.Provision.Asset.ID != "asset-1" {
		t.Fatalf("expected provisioning for asset-1, got %+v", cfg.Scenario.Provision)
	}
	if cfg.Scenario.Provider.ProtocolAddress() != "http://localhost:8282/protocol" {
		t.Fatalf("unexpected provider protocol address %q", cfg.Scenario.Provider.ProtocolAddress())
	}
}

func TestLoadRunConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
asset_id = "asset:with:colons"
poll_interval_ms = 1
transfer_state = "completed"
destination_type = "HttpData"
pull_data = false

[query]
limit = "10"

[consumer]
name = "consumer"
identity = "urn:connector:consumer"
management_url = "http://localhost:9191/api/management/"
protocol_url = "http://localhost:9292"

[provider]
name = "provider"
identity = "urn:connector:provider"
management_url = "http://localhost:8181/api/management"
protocol_url = "http://localhost:8282"
`)

	cfg, err := loadRunConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Wait.Deadline != 30*time.Second {
		t.Fatalf("expected default deadline, got %s", cfg.Wait.Deadline)
	}
	if cfg.Wait.Interval != 10*time.Millisecond {
		t.Fatalf("expected interval clamped to 10ms, got %s", cfg.Wait.Interval)
	}
	if !cfg.Scenario.TransferState.Is(dsp.TransferCompleted) || cfg.Scenario.PullData {
		t.Fatalf("unexpected transfer settings: %s pull=%v", cfg.Scenario.TransferState, cfg.Scenario.PullData)
	}
	if kind, _ := cfg.Scenario.Destination.PropertyText("type"); kind != dsp.DestinationHTTPData {
		t.Fatalf("unexpected destination type %q", kind)
	}
	if cfg.Scenario.Query.Get("limit") != "10" {
		t.Fatalf("unexpected query %v", cfg.Scenario.Query)
	}
	if cfg.Scenario.Provision != nil {
		t.Fatalf("expected no provisioning")
	}
	if cfg.Scenario.Consumer.ManagementURL != "http://localhost:9191/api/management" {
		t.Fatalf("unexpected consumer management url %q", cfg.Scenario.Consumer.ManagementURL)
	}
}

func TestLoadRunConfigRejectsBadFiles(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "missing participants",
			content: `asset_id = "a1"`,
			want:    "[consumer] and [provider]",
		},
		{
			name:    "unknown key",
			content: "asset = \"a1\"\n[consumer]\n[provider]\n",
			want:    "unknown key",
		},
		{
			name: "provision without source",
			content: `
asset_id = "a1"
provision = true
[consumer]
identity = "urn:c"
management_url = "http://localhost:1/api"
protocol_url = "http://localhost:2"
callback_url = "http://localhost:3"
[provider]
identity = "urn:p"
management_url = "http://localhost:4/api"
protocol_url = "http://localhost:5"
`,
			want: "source_base_url",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadRunConfig(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestStubOptionsFromFlags(t *testing.T) {
	testlog.Start(t)
	payload := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(payload, []byte(`{"message":"hi"}`), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	stubFlags.name = "stub-a"
	stubFlags.identity = "urn:connector:a"
	stubFlags.publicURL = "http://localhost:8383/public/"
	stubFlags.finalizeAfter = 3
	stubFlags.payloadFile = payload
	t.Cleanup(func() { stubFlags.payloadFile = "" })

	opts, err := stubOptions()
	if err != nil {
		t.Fatalf("stub options: %v", err)
	}
	if opts.Name != "stub-a" || opts.FinalizeAfterPolls != 3 {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.PublicURL != "http://localhost:8383/public" {
		t.Fatalf("expected trailing slash trimmed, got %q", opts.PublicURL)
	}
	if string(opts.Payload) != `{"message":"hi"}` {
		t.Fatalf("unexpected payload %q", opts.Payload)
	}
}
