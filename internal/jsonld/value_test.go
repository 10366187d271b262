package jsonld

import (
	"encoding/json"
	"testing"
)

func TestParseBuildsTaggedTree(t *testing.T) {
	v, err := Parse([]byte(`{"@id":"n1","edc:state":"FINALIZED","count":2,"ok":true,"none":null,"list":[{"@value":"x"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	obj, ok := v.(Object)
	if !ok {
		t.Fatalf("expected object, got %s", v.Kind())
	}
	if obj.ID() != "n1" {
		t.Fatalf("unexpected id %q", obj.ID())
	}
	if state, ok := obj.PropertyText("state"); !ok || state != "FINALIZED" {
		t.Fatalf("expected qualified state lookup, got %q %v", state, ok)
	}
	if obj["count"].Kind() != KindNumber || obj["ok"].Kind() != KindBool || obj["none"].Kind() != KindNull {
		t.Fatalf("unexpected scalar kinds: %v %v %v", obj["count"].Kind(), obj["ok"].Kind(), obj["none"].Kind())
	}
	if s, ok := Text(obj["list"]); !ok || s != "x" {
		t.Fatalf("expected expanded value unwrap, got %q %v", s, ok)
	}
}

func TestPropertyLookupOrder(t *testing.T) {
	obj := Object{
		EDC("contractAgreementId"): Array{Object{KeywordValue: String("agr-1")}},
	}
	got, ok := obj.PropertyText("contractAgreementId")
	if !ok || got != "agr-1" {
		t.Fatalf("expected expanded IRI lookup, got %q %v", got, ok)
	}

	obj["contractAgreementId"] = String("plain")
	got, _ = obj.PropertyText("contractAgreementId")
	if got != "plain" {
		t.Fatalf("expected bare term to win, got %q", got)
	}
}

func TestMarshalRoundTripThroughAny(t *testing.T) {
	in := Object{
		"@type": String("edc:TransferRequestDto"),
		"edc:dataDestination": Object{
			"edc:type": String("HttpProxy"),
		},
		"edc:managedResources": Bool(false),
		"edc:retries":          Number(3),
		"edc:tags":             Array{String("a"), Null{}},
	}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := ParseObject(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !Equivalent(in, out) {
		t.Fatalf("expected equivalent documents:\n%s", raw)
	}
}

func TestEquivalentIgnoresKeyOrderAndSpacing(t *testing.T) {
	a, err := Parse([]byte(`{"b": 1, "a": {"y": "2", "x": [1, 2]}}`))
	if err != nil {
		t.Fatalf("parse a: %v", err)
	}
	b, err := Parse([]byte(`{"a":{"x":[1,2],"y":"2"},"b":1.0}`))
	if err != nil {
		t.Fatalf("parse b: %v", err)
	}
	if !Equivalent(a, b) {
		t.Fatalf("expected canonical equivalence")
	}
	c, _ := Parse([]byte(`{"a":{"x":[2,1],"y":"2"},"b":1}`))
	if Equivalent(a, c) {
		t.Fatalf("array order must matter")
	}
}

func TestFromAnyRejectsUnknownTypes(t *testing.T) {
	if _, err := FromAny(struct{}{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}
