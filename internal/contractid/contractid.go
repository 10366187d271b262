// Package contractid encodes and decodes the composite identifier a connector
// assigns to catalog offers and contract agreements:
//
//	<definition>:<asset>:<suffix>
//
// The asset segment may itself contain the delimiter; the first and last
// segments are fixed, everything between them is the asset id.
package contractid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const Delimiter = ":"

var ErrMalformedReference = errors.New("contractid: malformed reference")

// ID is a decoded contract reference.
type ID struct {
	Definition string
	Asset      string
	Suffix     string
}

// New mints a reference for definition and asset with a random suffix.
func New(definition, asset string) ID {
	return ID{
		Definition: definition,
		Asset:      asset,
		Suffix:     uuid.NewString(),
	}
}

func (id ID) String() string {
	return id.Definition + Delimiter + id.Asset + Delimiter + id.Suffix
}

// Valid reports whether every segment is populated and the fixed segments
// do not contain the delimiter.
func (id ID) Valid() bool {
	if id.Definition == "" || id.Asset == "" || id.Suffix == "" {
		return false
	}
	return !strings.Contains(id.Definition, Delimiter) && !strings.Contains(id.Suffix, Delimiter)
}

// Parse decodes ref. It fails with ErrMalformedReference when ref has fewer
// than three segments or any segment is empty.
func Parse(ref string) (ID, error) {
	if strings.TrimSpace(ref) == "" {
		return ID{}, fmt.Errorf("%w: empty", ErrMalformedReference)
	}
	first := strings.Index(ref, Delimiter)
	last := strings.LastIndex(ref, Delimiter)
	if first < 0 || first == last {
		return ID{}, fmt.Errorf("%w: %q has fewer than 3 segments", ErrMalformedReference, ref)
	}
	id := ID{
		Definition: ref[:first],
		Asset:      ref[first+1 : last],
		Suffix:     ref[last+1:],
	}
	if !id.Valid() {
		return ID{}, fmt.Errorf("%w: %q has an empty segment", ErrMalformedReference, ref)
	}
	return id, nil
}

// AssetIDFromReference returns the asset segment of ref.
func AssetIDFromReference(ref string) (string, error) {
	id, err := Parse(ref)
	if err != nil {
		return "", err
	}
	return id.Asset, nil
}
