package jsonld

import (
	"errors"
	"fmt"

	"github.com/danmuck/dspctl/internal/contractid"
)

var (
	ErrDocumentResolution = errors.New("jsonld: document resolution failed")
	ErrDatasetNotFound    = errors.New("jsonld: dataset not found")
	ErrEmptyCatalog       = errors.New("jsonld: catalog has no datasets")
)

// Offer is one policy offer advertised by a dataset.
type Offer struct {
	ID     string
	Ref    contractid.ID
	Policy Object
}

// Dataset is a catalog entry with its decoded policy offers.
type Dataset struct {
	Node   Object
	Offers []Offer
}

// AssetID is the asset segment of the dataset's first offer.
func (d Dataset) AssetID() string {
	if len(d.Offers) == 0 {
		return ""
	}
	return d.Offers[0].Ref.Asset
}

// Offer returns the first policy offer.
func (d Dataset) Offer() (Offer, bool) {
	if len(d.Offers) == 0 {
		return Offer{}, false
	}
	return d.Offers[0], true
}

// Resolver projects expanded documents into the shapes the driver needs.
type Resolver struct {
	proc    Processor
	context Object
}

func NewResolver(proc Processor) *Resolver {
	if proc == nil {
		proc = NewGoldProcessor()
	}
	return &Resolver{
		proc:    proc,
		context: DefaultContext(),
	}
}

// Expand normalizes doc into its expanded node array.
func (r *Resolver) Expand(doc Value) ([]Object, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrDocumentResolution)
	}
	raw, err := r.proc.Expand(ToAny(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentResolution, err)
	}
	conv, err := FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentResolution, err)
	}
	return Objects(conv), nil
}

// ExpandCatalog expands a catalog response and returns its dataset nodes.
// A catalog without datasets is a resolution failure that also matches
// ErrEmptyCatalog.
func (r *Resolver) ExpandCatalog(doc Value) ([]Object, error) {
	nodes, err := r.Expand(doc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %w: expanded to no nodes", ErrDocumentResolution, ErrEmptyCatalog)
	}
	raw, ok := nodes[0].Get(DCATDataset)
	if !ok {
		return nil, fmt.Errorf("%w: %w: no %s", ErrDocumentResolution, ErrEmptyCatalog, DCATDataset)
	}
	datasets := Objects(raw)
	if len(datasets) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrDocumentResolution, ErrEmptyCatalog)
	}
	return datasets, nil
}

// Compact compacts doc against the resolver's default prefixes.
func (r *Resolver) Compact(doc Value) (Object, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrDocumentResolution)
	}
	ctx := map[string]any{KeywordContext: ToAny(r.context)}
	raw, err := r.proc.Compact(ToAny(doc), ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentResolution, err)
	}
	conv, err := FromAny(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentResolution, err)
	}
	obj, ok := conv.(Object)
	if !ok {
		return nil, fmt.Errorf("%w: compacted %s, want object", ErrDocumentResolution, conv.Kind())
	}
	return obj, nil
}

// DatasetOffers decodes the policy offers of one dataset node. Expanded and
// compacted property names are both accepted.
func DatasetOffers(node Object) ([]Offer, error) {
	raw, ok := node.First(ODRLHasPolicy, ODRLPrefix+":hasPolicy", "hasPolicy")
	if !ok {
		return nil, fmt.Errorf("dataset %q has no policy offers", node.ID())
	}
	policies := Objects(raw)
	if len(policies) == 0 {
		return nil, fmt.Errorf("dataset %q has no policy offers", node.ID())
	}
	offers := make([]Offer, 0, len(policies))
	for _, policy := range policies {
		id := policy.ID()
		ref, err := contractid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("dataset %q: %w", node.ID(), err)
		}
		offers = append(offers, Offer{ID: id, Ref: ref, Policy: policy})
	}
	return offers, nil
}

// FindDatasetForAsset returns the first dataset, in array order, whose first
// offer decodes to assetID. Datasets with undecodable offers are skipped and
// reported in the not-found error.
func FindDatasetForAsset(datasets []Object, assetID string) (Dataset, error) {
	var skipped []error
	for _, node := range datasets {
		offers, err := DatasetOffers(node)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		if offers[0].Ref.Asset == assetID {
			return Dataset{Node: node, Offers: offers}, nil
		}
	}
	notFound := fmt.Errorf("%w: no dataset for asset %q among %d datasets", ErrDatasetNotFound, assetID, len(datasets))
	if len(skipped) > 0 {
		return Dataset{}, errors.Join(append([]error{notFound}, skipped...)...)
	}
	return Dataset{}, notFound
}
