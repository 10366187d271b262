package dsp

import (
	"context"
	"fmt"

	"github.com/danmuck/dspctl/internal/convergence"
	"github.com/danmuck/dspctl/internal/jsonld"
	"github.com/danmuck/dspctl/internal/participant"
)

func catalogRequest(provider participant.Endpoint) jsonld.Object {
	return jsonld.Object{
		jsonld.KeywordContext:     jsonld.Object{jsonld.EDCPrefix: jsonld.String(jsonld.EDCNamespace)},
		jsonld.KeywordType:        jsonld.String("CatalogRequest"),
		jsonld.EDC("providerUrl"): jsonld.String(provider.ProtocolAddress()),
		jsonld.EDC("protocol"):    jsonld.String(ProtocolName),
	}
}

// RequestCatalog asks the consumer for the provider's catalog once and
// returns its expanded dataset nodes.
func (d *Driver) RequestCatalog(ctx context.Context, consumer, provider participant.Endpoint) ([]jsonld.Object, error) {
	doc, err := d.client.PostJSON(ctx, joinURL(consumer.ManagementURL, "v2/catalog/request"), catalogRequest(provider))
	if err != nil {
		return nil, err
	}
	return d.resolver.ExpandCatalog(doc)
}

// DatasetForAsset polls the catalog until a dataset offering assetID appears.
// Empty catalogs and catalogs without the asset are retried until the
// deadline.
func (d *Driver) DatasetForAsset(ctx context.Context, consumer, provider participant.Endpoint, assetID string) (jsonld.Dataset, error) {
	var dataset jsonld.Dataset
	err := d.phase(PhaseCatalog, func() error {
		var err error
		dataset, err = await(ctx, d, PhaseCatalog, func(ctx context.Context) convergence.Result[jsonld.Dataset] {
			datasets, err := d.RequestCatalog(ctx, consumer, provider)
			if err != nil {
				return pollFailure[jsonld.Dataset](d, err)
			}
			found, err := jsonld.FindDatasetForAsset(datasets, assetID)
			if err != nil {
				return convergence.Pending[jsonld.Dataset](err)
			}
			return convergence.Converged(found)
		})
		if err != nil {
			return fmt.Errorf("catalog of %s for asset %q: %w", provider, assetID, err)
		}
		d.logger.Info().Str("asset", assetID).Str("dataset", dataset.Node.ID()).Int("offers", len(dataset.Offers)).Msg("dataset resolved")
		return nil
	})
	return dataset, err
}
