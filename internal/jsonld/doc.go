// Package jsonld owns the semi-structured document model used on the
// management API boundary.
//
// Ownership boundary:
// - tagged value tree (object / array / scalar) and its JSON codec
// - expand/compact through a pluggable Processor
// - catalog projections (dataset nodes, policy offers, asset lookup)
//
// The normalization algorithm itself lives behind Processor.
package jsonld
