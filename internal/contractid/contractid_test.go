package contractid

import (
	"errors"
	"testing"
)

func TestAssetIDFromReference(t *testing.T) {
	cases := []struct {
		ref   string
		asset string
	}{
		{ref: "def-1:asset-1:7a3b", asset: "asset-1"},
		{ref: "1:a2:0c2c1f6e-3e0b-4d6e-9f22-5b7d7c6f0a11", asset: "a2"},
		{ref: "def:urn:asset:42:suffix", asset: "urn:asset:42"},
	}
	for _, tc := range cases {
		got, err := AssetIDFromReference(tc.ref)
		if err != nil {
			t.Fatalf("AssetIDFromReference(%q): %v", tc.ref, err)
		}
		if got != tc.asset {
			t.Fatalf("AssetIDFromReference(%q) = %q want %q", tc.ref, got, tc.asset)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, ref := range []string{"", "   ", "no-delimiter", "only:two", "::", "def::suffix", ":asset:suffix", "def:asset:"} {
		if _, err := Parse(ref); !errors.Is(err, ErrMalformedReference) {
			t.Fatalf("Parse(%q): expected ErrMalformedReference, got %v", ref, err)
		}
	}
}

func TestNewEncodesDecodableReference(t *testing.T) {
	for _, asset := range []string{"asset-1", "urn:asset:7"} {
		id := New("def-9", asset)
		if !id.Valid() {
			t.Fatalf("expected minted id to be valid: %+v", id)
		}
		got, err := AssetIDFromReference(id.String())
		if err != nil {
			t.Fatalf("decode minted id %q: %v", id, err)
		}
		if got != asset {
			t.Fatalf("decoded asset %q want %q", got, asset)
		}
	}
}
