package jsonld

import (
	"errors"
	"testing"

	"github.com/danmuck/dspctl/internal/contractid"
	"github.com/danmuck/dspctl/internal/testutil/testlog"
	"github.com/rs/zerolog/log"
)

func expandedDataset(assetID, offerID string) Object {
	return Object{
		KeywordID:   String("urn:dataset:" + assetID),
		KeywordType: Array{String(DCATDatasetType)},
		ODRLHasPolicy: Array{Object{
			KeywordID:   String(offerID),
			KeywordType: Array{String(ODRLNamespace + "Set")},
		}},
		EDC("id"): Array{Object{KeywordValue: String(assetID)}},
	}
}

func TestFindDatasetForAssetFirstMatch(t *testing.T) {
	testlog.Start(t)

	datasets := []Object{
		expandedDataset("a1", "def-1:a1:s1"),
		expandedDataset("a2", "def-2:a2:s2"),
		expandedDataset("a3", "def-3:a3:s3"),
	}

	ds, err := FindDatasetForAsset(datasets, "a2")
	if err != nil {
		t.Fatalf("find a2: %v", err)
	}
	if ds.AssetID() != "a2" || ds.Node.ID() != "urn:dataset:a2" {
		t.Fatalf("unexpected dataset: asset=%q id=%q", ds.AssetID(), ds.Node.ID())
	}
	offer, ok := ds.Offer()
	if !ok || offer.ID != "def-2:a2:s2" || offer.Ref.Definition != "def-2" {
		t.Fatalf("unexpected offer: %+v", offer)
	}
	log.Info().Msgf("jsonld/find: asset=a2 offer=%s", offer.ID)

	if _, err := FindDatasetForAsset(datasets, "a9"); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound for a9, got %v", err)
	}
}

func TestFindDatasetForAssetPrefersArrayOrder(t *testing.T) {
	datasets := []Object{
		expandedDataset("dup", "first:dup:1"),
		expandedDataset("dup", "second:dup:2"),
	}
	ds, err := FindDatasetForAsset(datasets, "dup")
	if err != nil {
		t.Fatalf("find dup: %v", err)
	}
	if ds.Offers[0].Ref.Definition != "first" {
		t.Fatalf("expected first dataset in array order, got %q", ds.Offers[0].Ref.Definition)
	}
}

func TestFindDatasetForAssetSkipsMalformedOffers(t *testing.T) {
	datasets := []Object{
		expandedDataset("broken", "not-a-reference"),
		expandedDataset("a1", "def:a1:s"),
	}
	ds, err := FindDatasetForAsset(datasets, "a1")
	if err != nil {
		t.Fatalf("find a1: %v", err)
	}
	if ds.AssetID() != "a1" {
		t.Fatalf("unexpected asset %q", ds.AssetID())
	}

	_, err = FindDatasetForAsset(datasets, "a5")
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if !errors.Is(err, contractid.ErrMalformedReference) {
		t.Fatalf("expected malformed offer to be reported, got %v", err)
	}
}

func TestDatasetOffersAcceptsCompactedNames(t *testing.T) {
	node := Object{
		KeywordID:        String("urn:dataset:c"),
		"odrl:hasPolicy": Object{KeywordID: String("d:c:1")},
	}
	offers, err := DatasetOffers(node)
	if err != nil {
		t.Fatalf("offers: %v", err)
	}
	if len(offers) != 1 || offers[0].Ref.Asset != "c" {
		t.Fatalf("unexpected offers: %+v", offers)
	}
}

func catalogDocument() Object {
	dataset := func(asset, offer string) Object {
		return Object{
			KeywordID:        String("urn:dataset:" + asset),
			KeywordType:      String("dcat:Dataset"),
			"odrl:hasPolicy": Object{KeywordID: String(offer), KeywordType: String("odrl:Set")},
			"edc:id":         String(asset),
		}
	}
	return Object{
		KeywordContext: DefaultContext(),
		KeywordID:      String("urn:catalog:provider"),
		KeywordType:    String("dcat:Catalog"),
		"dcat:dataset": Array{
			dataset("a1", "def-1:a1:s1"),
			dataset("a2", "def-2:a2:s2"),
		},
	}
}

func TestResolverExpandCatalogWithGold(t *testing.T) {
	testlog.Start(t)

	r := NewResolver(nil)
	datasets, err := r.ExpandCatalog(catalogDocument())
	if err != nil {
		t.Fatalf("expand catalog: %v", err)
	}
	if len(datasets) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(datasets))
	}
	ds, err := FindDatasetForAsset(datasets, "a2")
	if err != nil {
		t.Fatalf("find a2: %v", err)
	}
	if got, ok := ds.Node.PropertyText("id"); !ok || got != "a2" {
		t.Fatalf("expected expanded edc:id a2, got %q (%v)", got, ok)
	}
	log.Info().Msgf("jsonld/expand: datasets=%d matched=%s", len(datasets), ds.Node.ID())
}

func TestResolverExpandCatalogEmpty(t *testing.T) {
	r := NewResolver(nil)
	doc := Object{
		KeywordContext: DefaultContext(),
		KeywordID:      String("urn:catalog:empty"),
		KeywordType:    String("dcat:Catalog"),
		"dcat:dataset": Array{},
	}
	_, err := r.ExpandCatalog(doc)
	if !errors.Is(err, ErrDocumentResolution) {
		t.Fatalf("expected ErrDocumentResolution, got %v", err)
	}
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestResolverCompactPolicy(t *testing.T) {
	r := NewResolver(nil)
	policy := Object{
		KeywordID:   String("def-1:a1:s1"),
		KeywordType: Array{String(ODRLNamespace + "Set")},
	}
	compacted, err := r.Compact(policy)
	if err != nil {
		t.Fatalf("compact: %v", err)
	}
	if compacted.ID() != "def-1:a1:s1" {
		t.Fatalf("unexpected compacted id: %q", compacted.ID())
	}
	if typ, _ := Text(compacted[KeywordType]); typ != "odrl:Set" {
		t.Fatalf("unexpected compacted type: %q", typ)
	}
}

type failingProcessor struct{ err error }

func (p failingProcessor) Expand(any) ([]any, error) {
	return nil, p.err
}

func (p failingProcessor) Compact(any, any) (map[string]any, error) {
	return nil, p.err
}

func TestResolverWrapsProcessorFailures(t *testing.T) {
	boom := errors.New("remote context unavailable")
	r := NewResolver(failingProcessor{err: boom})
	if _, err := r.Expand(Object{}); !errors.Is(err, ErrDocumentResolution) {
		t.Fatalf("expected ErrDocumentResolution from expand, got %v", err)
	}
	if _, err := r.Compact(Object{}); !errors.Is(err, ErrDocumentResolution) {
		t.Fatalf("expected ErrDocumentResolution from compact, got %v", err)
	}
}
