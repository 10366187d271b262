package jsonld

import (
	"fmt"
	"net/http"
	"time"

	"github.com/piprate/json-gold/ld"
)

// ContextLoadTimeout bounds a single remote @context fetch.
const ContextLoadTimeout = 5 * time.Second

// Processor is the linked-data normalization capability. Implementations
// take and return plain encoding/json shapes.
type Processor interface {
	Expand(doc any) ([]any, error)
	Compact(doc any, context any) (map[string]any, error)
}

// GoldProcessor runs expansion and compaction through json-gold.
type GoldProcessor struct {
	proc   *ld.JsonLdProcessor
	loader ld.DocumentLoader
}

// NewGoldProcessor returns a processor whose document loader fetches remote
// contexts with a ContextLoadTimeout client.
func NewGoldProcessor() *GoldProcessor {
	return NewGoldProcessorWithClient(nil)
}

// NewGoldProcessorWithClient fetches remote contexts with httpClient. A nil
// client gets ContextLoadTimeout.
func NewGoldProcessorWithClient(httpClient *http.Client) *GoldProcessor {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: ContextLoadTimeout}
	}
	return &GoldProcessor{
		proc:   ld.NewJsonLdProcessor(),
		loader: ld.NewDefaultDocumentLoader(httpClient),
	}
}

func (p *GoldProcessor) options() *ld.JsonLdOptions {
	opts := ld.NewJsonLdOptions("")
	opts.DocumentLoader = p.loader
	return opts
}

func (p *GoldProcessor) Expand(doc any) ([]any, error) {
	out, err := p.proc.Expand(doc, p.options())
	if err != nil {
		return nil, fmt.Errorf("jsonld: expand: %w", err)
	}
	return out, nil
}

func (p *GoldProcessor) Compact(doc any, context any) (map[string]any, error) {
	out, err := p.proc.Compact(doc, context, p.options())
	if err != nil {
		return nil, fmt.Errorf("jsonld: compact: %w", err)
	}
	return out, nil
}
