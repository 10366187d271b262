package jsonld

const (
	KeywordID      = "@id"
	KeywordType    = "@type"
	KeywordValue   = "@value"
	KeywordContext = "@context"
)

const (
	EDCPrefix    = "edc"
	EDCNamespace = "https://w3id.org/edc/v0.0.1/ns/"

	DCATPrefix    = "dcat"
	DCATNamespace = "http://www.w3.org/ns/dcat#"

	DCTPrefix    = "dct"
	DCTNamespace = "https://purl.org/dc/terms/"

	ODRLPrefix    = "odrl"
	ODRLNamespace = "http://www.w3.org/ns/odrl/2/"

	DSPACEPrefix    = "dspace"
	DSPACENamespace = "https://w3id.org/dspace/v0.8/"
)

const (
	DCATDataset     = DCATNamespace + "dataset"
	DCATDatasetType = DCATNamespace + "Dataset"
	ODRLHasPolicy   = ODRLNamespace + "hasPolicy"
)

// DefaultContext maps the prefixes used by connector management APIs.
func DefaultContext() Object {
	return Object{
		EDCPrefix:    String(EDCNamespace),
		DCATPrefix:   String(DCATNamespace),
		DCTPrefix:    String(DCTNamespace),
		ODRLPrefix:   String(ODRLNamespace),
		DSPACEPrefix: String(DSPACENamespace),
	}
}

// EDC returns the fully qualified IRI of an EDC term.
func EDC(term string) string {
	return EDCNamespace + term
}
