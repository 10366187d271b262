package dsp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/participant"
	"github.com/google/uuid"
)

// Asset is a provider asset and the address its data is served from.
type Asset struct {
	ID          string
	Properties  map[string]string
	DataAddress jsonld.Object
}

// ContractDefinition offers assets matching AssetID under the two policies.
type ContractDefinition struct {
	ID               string
	AccessPolicyID   string
	ContractPolicyID string
	AssetID          string
}

// DataPlaneInstance registers a data plane with a control plane.
type DataPlaneInstance struct {
	ID                 string
	ControlURL         string
	PublicURL          string
	AllowedSourceTypes []string
	AllowedDestTypes   []string
}

// Provisioning is everything a provider needs before it can offer one asset.
type Provisioning struct {
	Asset                Asset
	Policy               jsonld.Object
	ContractDefinitionID string
	DataPlane            *DataPlaneInstance
}

// Provisioned carries the ids assigned while provisioning.
type Provisioned struct {
	PolicyID             string
	ContractDefinitionID string
}

// OpenPolicy is an ODRL set without constraints.
func OpenPolicy() jsonld.Object {
	return jsonld.Object{
		jsonld.KeywordContext: jsonld.Object{jsonld.ODRLPrefix: jsonld.String(jsonld.ODRLNamespace)},
		jsonld.KeywordType:    jsonld.String(jsonld.ODRLPrefix + ":Set"),
	}
}

// HTTPDataSource points an asset at an HTTP backend.
func HTTPDataSource(baseURL string) jsonld.Object {
	return DataAddress(DestinationHTTPData, map[string]string{
		"baseUrl":          baseURL,
		"proxyPath":        "true",
		"proxyQueryParams": "true",
	})
}

func (d *Driver) CreateAsset(ctx context.Context, provider participant.Endpoint, asset Asset) error {
	if strings.TrimSpace(asset.ID) == "" {
		return fmt.Errorf("%w: asset id", ErrMissingField)
	}
	props := jsonld.Object{
		jsonld.EDC("id"): jsonld.String(asset.ID),
	}
	for k, v := range asset.Properties {
		props[jsonld.EDC(k)] = jsonld.String(v)
	}
	addr := asset.DataAddress
	if addr == nil {
		addr = DataAddress(DestinationHTTPData, nil)
	}
	body := jsonld.Object{
		jsonld.KeywordContext:     jsonld.Object{jsonld.EDCPrefix: jsonld.String(jsonld.EDCNamespace)},
		jsonld.KeywordID:          jsonld.String(asset.ID),
		jsonld.EDC("properties"):  props,
		jsonld.EDC("dataAddress"): addr,
	}
	return d.client.Send(ctx, http.MethodPost, joinURL(provider.ManagementURL, "v2/assets"), body)
}

// CreatePolicyDefinition stores policy and returns the id the provider
// assigned to it.
func (d *Driver) CreatePolicyDefinition(ctx context.Context, provider participant.Endpoint, policy jsonld.Object) (string, error) {
	if policy == nil {
		policy = OpenPolicy()
	}
	body := jsonld.Object{
		jsonld.KeywordContext: jsonld.Object{jsonld.EDCPrefix: jsonld.String(jsonld.EDCNamespace)},
		jsonld.KeywordType:    jsonld.String("PolicyDefinitionDto"),
		jsonld.EDC("policy"):  policy,
	}
	resp, err := d.client.PostJSON(ctx, joinURL(provider.ManagementURL, "v2/policydefinitions"), body)
	if err != nil {
		return "", err
	}
	id := resp.ID()
	if id == "" {
		return "", fmt.Errorf("%w: policy definition response has no %s", ErrMissingField, jsonld.KeywordID)
	}
	return id, nil
}

func (d *Driver) CreateContractDefinition(ctx context.Context, provider participant.Endpoint, def ContractDefinition) error {
	criterion := jsonld.Object{
		jsonld.KeywordType:         jsonld.String("CriterionDto"),
		jsonld.EDC("operandLeft"):  jsonld.String(jsonld.EDC("id")),
		jsonld.EDC("operator"):     jsonld.String("="),
		jsonld.EDC("operandRight"): jsonld.String(def.AssetID),
	}
	body := jsonld.Object{
		jsonld.KeywordContext:          jsonld.Object{jsonld.EDCPrefix: jsonld.String(jsonld.EDCNamespace)},
		jsonld.KeywordID:               jsonld.String(def.ID),
		jsonld.KeywordType:             jsonld.String(jsonld.EDC("ContractDefinition")),
		jsonld.EDC("accessPolicyId"):   jsonld.String(def.AccessPolicyID),
		jsonld.EDC("contractPolicyId"): jsonld.String(def.ContractPolicyID),
		jsonld.EDC("criteria"):         jsonld.Array{criterion},
	}
	return d.client.Send(ctx, http.MethodPost, joinURL(provider.ManagementURL, "v2/contractdefinitions"), body)
}

// RegisterDataPlane registers dp with the provider control plane. The
// control plane answers 204.
func (d *Driver) RegisterDataPlane(ctx context.Context, provider participant.Endpoint, dp DataPlaneInstance) error {
	if dp.ID == "" {
		dp.ID = uuid.NewString()
	}
	if len(dp.AllowedSourceTypes) == 0 {
		dp.AllowedSourceTypes = []string{DestinationHTTPData}
	}
	if len(dp.AllowedDestTypes) == 0 {
		dp.AllowedDestTypes = []string{DestinationHTTPData, DestinationHTTPProxy}
	}
	body := map[string]any{
		"id":                 dp.ID,
		"url":                joinURL(dp.ControlURL, "transfer"),
		"allowedSourceTypes": dp.AllowedSourceTypes,
		"allowedDestTypes":   dp.AllowedDestTypes,
		"properties":         map[string]string{"publicApiUrl": dp.PublicURL},
	}
	return d.client.Send(ctx, http.MethodPost, joinURL(provider.ManagementURL, "instances"), body)
}

// Provision creates the asset, its policy and a contract definition offering
// it. Every call must be accepted; the first rejection aborts.
func (d *Driver) Provision(ctx context.Context, provider participant.Endpoint, p Provisioning) (Provisioned, error) {
	var out Provisioned
	err := d.phase(PhaseProvision, func() error {
		if p.DataPlane != nil {
			if err := d.RegisterDataPlane(ctx, provider, *p.DataPlane); err != nil {
				return fmt.Errorf("register data plane: %w", err)
			}
		}
		if err := d.CreateAsset(ctx, provider, p.Asset); err != nil {
			return fmt.Errorf("create asset %s: %w", p.Asset.ID, err)
		}
		policyID, err := d.CreatePolicyDefinition(ctx, provider, p.Policy)
		if err != nil {
			return fmt.Errorf("create policy: %w", err)
		}
		defID := p.ContractDefinitionID
		if defID == "" {
			defID = "def-" + uuid.NewString()
		}
		if err := d.CreateContractDefinition(ctx, provider, ContractDefinition{
			ID:               defID,
			AccessPolicyID:   policyID,
			ContractPolicyID: policyID,
			AssetID:          p.Asset.ID,
		}); err != nil {
			return fmt.Errorf("create contract definition %s: %w", defID, err)
		}
		out = Provisioned{PolicyID: policyID, ContractDefinitionID: defID}
		d.logger.Info().Str("asset", p.Asset.ID).Str("policy", policyID).Str("definition", defID).Msg("provider provisioned")
		return nil
	})
	return out, err
}
