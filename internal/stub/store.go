package stub

import (
	"github.com/danmuck/dspctl/internal/auth"
	"github.com/danmuck/dspctl/internal/contractid"
	"github.com/danmuck/dspctl/internal/jsonld"
)

const (
	stateRequested  = "REQUESTED"
	stateFinalized  = "FINALIZED"
	stateTerminated = "TERMINATED"
	stateStarted    = "STARTED"
	stateCompleted  = "COMPLETED"

	destinationHTTPProxy = "HttpProxy"
)

type asset struct {
	id          string
	properties  jsonld.Object
	dataAddress jsonld.Object
}

type contractDefinition struct {
	id               string
	accessPolicyID   string
	contractPolicyID string
	assetIDs         []string
}

type offer struct {
	ref    contractid.ID
	policy jsonld.Object
}

type negotiation struct {
	id          string
	offerID     string
	assetID     string
	state       string
	agreementID string
	errorDetail string
	statePolls  int
	detailPolls int
}

type transfer struct {
	id          string
	agreementID string
	assetID     string
	pull        bool
	state       string
	polls       int
	endpoint    string
	credential  *auth.Credential
}

// store is guarded by Server.mu.
type store struct {
	assets       map[string]asset
	assetOrder   []string
	policies     map[string]jsonld.Object
	definitions  []contractDefinition
	offers       map[string]offer
	offerIndex   map[string]string
	dataPlanes   map[string]map[string]any
	catalogPolls int
	negotiations map[string]*negotiation
	agreements   map[string]string
	transfers    map[string]*transfer
}

func newStore() *store {
	return &store{
		assets:       make(map[string]asset),
		policies:     make(map[string]jsonld.Object),
		offers:       make(map[string]offer),
		offerIndex:   make(map[string]string),
		dataPlanes:   make(map[string]map[string]any),
		negotiations: make(map[string]*negotiation),
		agreements:   make(map[string]string),
		transfers:    make(map[string]*transfer),
	}
}

// offerFor returns the offer id advertised for asset under def, minting it
// on first use.
func (st *store) offerFor(def contractDefinition, assetID string) string {
	key := def.id + "\x00" + assetID
	if id, ok := st.offerIndex[key]; ok {
		return id
	}
	ref := contractid.New(def.id, assetID)
	id := ref.String()
	st.offerIndex[key] = id
	st.offers[id] = offer{ref: ref, policy: st.policies[def.contractPolicyID]}
	return id
}

// datasets lists one dataset per offered asset, in definition then asset
// creation order.
func (st *store) datasets() jsonld.Array {
	out := jsonld.Array{}
	for _, def := range st.definitions {
		for _, assetID := range st.assetOrder {
			if !containsString(def.assetIDs, assetID) {
				continue
			}
			offerID := st.offerFor(def, assetID)
			out = append(out, jsonld.Object{
				jsonld.KeywordID:   jsonld.String(assetID),
				jsonld.KeywordType: jsonld.String("dcat:Dataset"),
				"odrl:hasPolicy":   jsonld.Array{offerNode(offerID, st.offers[offerID].policy)},
				"edc:id":           jsonld.String(assetID),
			})
		}
	}
	return out
}

func offerNode(id string, policy jsonld.Object) jsonld.Object {
	node := make(jsonld.Object, len(policy)+1)
	for k, v := range policy {
		node[k] = v
	}
	node[jsonld.KeywordID] = jsonld.String(id)
	if _, ok := node[jsonld.KeywordType]; !ok {
		node[jsonld.KeywordType] = jsonld.String("odrl:Set")
	}
	return node
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
