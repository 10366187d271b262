package stub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/dspctl/internal/contractid"
	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

func serve(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) jsonld.Object {
	t.Helper()
	obj, err := jsonld.ParseObject(rr.Body.Bytes())
	if err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return obj
}

func mgmt(path string) string {
	return DefaultManagementPath + path
}

// seedOffer provisions one asset under an open policy and returns the
// policy id.
func seedOffer(t *testing.T, s *Server, assetID string) string {
	t.Helper()
	rr := serve(t, s, http.MethodPost, mgmt("/v2/assets"), map[string]any{
		"@id":                     assetID,
		jsonld.EDC("properties"):  map[string]any{jsonld.EDC("id"): assetID},
		jsonld.EDC("dataAddress"): map[string]any{jsonld.EDC("type"): "HttpData"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create asset: status %d body=%s", rr.Code, rr.Body.String())
	}
	rr = serve(t, s, http.MethodPost, mgmt("/v2/policydefinitions"), map[string]any{
		jsonld.EDC("policy"): map[string]any{
			"@context": map[string]any{"odrl": jsonld.ODRLNamespace},
			"@type":    "odrl:Set",
		},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create policy: status %d body=%s", rr.Code, rr.Body.String())
	}
	policyID := decode(t, rr).ID()
	rr = serve(t, s, http.MethodPost, mgmt("/v2/contractdefinitions"), map[string]any{
		"@id":                          "def-" + assetID,
		jsonld.EDC("accessPolicyId"):   policyID,
		jsonld.EDC("contractPolicyId"): policyID,
		jsonld.EDC("criteria"): []any{map[string]any{
			jsonld.EDC("operandLeft"):  jsonld.EDC("id"),
			jsonld.EDC("operator"):     "=",
			jsonld.EDC("operandRight"): assetID,
		}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("create contract definition: status %d body=%s", rr.Code, rr.Body.String())
	}
	return policyID
}

func catalogRequest() map[string]any {
	return map[string]any{
		"@type":                   "CatalogRequest",
		jsonld.EDC("providerUrl"): "http://localhost:8282/protocol",
		jsonld.EDC("protocol"):    "dataspace-protocol-http",
	}
}

func TestHealthReportsIdentity(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-health", Identity: "urn:connector:health"})
	rr := serve(t, s, http.MethodGet, "/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" || body["identity"] != "urn:connector:health" {
		t.Fatalf("unexpected health body: %#v", body)
	}
}

func TestCatalogAdvertisesOffersInCreationOrder(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-catalog", EmptyCatalogPolls: 1})
	for _, asset := range []string{"a1", "a2", "a3"} {
		seedOffer(t, s, asset)
	}

	rr := serve(t, s, http.MethodPost, mgmt("/v2/catalog/request"), catalogRequest())
	if rr.Code != http.StatusOK {
		t.Fatalf("catalog: status %d body=%s", rr.Code, rr.Body.String())
	}
	raw, _ := decode(t, rr).Get("dcat:dataset")
	if n := len(jsonld.Objects(raw)); n != 0 {
		t.Fatalf("expected empty first catalog, got %d datasets", n)
	}

	rr = serve(t, s, http.MethodPost, mgmt("/v2/catalog/request"), catalogRequest())
	raw, _ = decode(t, rr).Get("dcat:dataset")
	datasets := jsonld.Objects(raw)
	if len(datasets) != 3 {
		t.Fatalf("expected 3 datasets, got %d", len(datasets))
	}
	for i, want := range []string{"a1", "a2", "a3"} {
		offers, err := jsonld.DatasetOffers(datasets[i])
		if err != nil {
			t.Fatalf("dataset %d offers: %v", i, err)
		}
		if offers[0].Ref.Asset != want || offers[0].Ref.Definition != "def-"+want {
			t.Fatalf("dataset %d: unexpected offer %s", i, offers[0].ID)
		}
	}

	rr = serve(t, s, http.MethodPost, mgmt("/v2/catalog/request"), catalogRequest())
	raw, _ = decode(t, rr).Get("dcat:dataset")
	again, _ := jsonld.DatasetOffers(jsonld.Objects(raw)[0])
	first, _ := jsonld.DatasetOffers(datasets[0])
	if again[0].ID != first[0].ID {
		t.Fatalf("expected stable offer ids, got %s then %s", first[0].ID, again[0].ID)
	}
	log.Info().Msgf("stub/catalog: offers stable id=%s", first[0].ID)
}

func TestContractDefinitionRequiresKnownPolicy(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-definition"})
	rr := serve(t, s, http.MethodPost, mgmt("/v2/contractdefinitions"), map[string]any{
		"@id":                          "def-1",
		jsonld.EDC("accessPolicyId"):   "missing",
		jsonld.EDC("contractPolicyId"): "missing",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestNegotiationRejectsUnknownOffer(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-unknown-offer"})
	rr := serve(t, s, http.MethodPost, mgmt("/v2/contractnegotiations"), map[string]any{
		jsonld.EDC("offer"): map[string]any{
			jsonld.EDC("offerId"): contractid.New("def-x", "a1").String(),
		},
	})
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "unknown offer") {
		t.Fatalf("expected unknown offer rejection, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestNegotiationRejectsTamperedPolicy(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-tampered"})
	seedOffer(t, s, "a1")
	rr := serve(t, s, http.MethodPost, mgmt("/v2/catalog/request"), catalogRequest())
	raw, _ := decode(t, rr).Get("dcat:dataset")
	offers, err := jsonld.DatasetOffers(jsonld.Objects(raw)[0])
	if err != nil {
		t.Fatalf("offers: %v", err)
	}

	rr = serve(t, s, http.MethodPost, mgmt("/v2/contractnegotiations"), map[string]any{
		jsonld.EDC("offer"): map[string]any{
			jsonld.EDC("offerId"): offers[0].ID,
			jsonld.EDC("policy"): map[string]any{
				"@context": map[string]any{"odrl": jsonld.ODRLNamespace},
				"@id":      offers[0].ID,
				"@type":    "odrl:Offer",
			},
		},
	})
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "policy does not match") {
		t.Fatalf("expected policy mismatch, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestUnknownResourcesAreNotFound(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-missing"})
	for _, path := range []string{
		mgmt("/v2/contractnegotiations/nope/state"),
		mgmt("/v2/contractnegotiations/nope"),
		mgmt("/transferprocess/nope/state"),
		CallbackPath + "/nope",
	} {
		if rr := serve(t, s, http.MethodGet, path, nil); rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", path, rr.Code)
		}
	}
}

func TestPublicEndpointRequiresCredential(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-public"})
	rr := serve(t, s, http.MethodGet, DefaultPublicPath, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without credential, got %d", rr.Code)
	}
}

func TestRegisterDataPlaneReturnsNoContent(t *testing.T) {
	testlog.Start(t)
	s := New(Options{Name: "stub-instances"})
	rr := serve(t, s, http.MethodPost, mgmt("/instances"), map[string]any{
		"id":  "dp-1",
		"url": "http://localhost:9192/control/transfer",
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	rr = serve(t, s, http.MethodPost, mgmt("/instances"), map[string]any{"id": "dp-2"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing url, got %d", rr.Code)
	}
}
