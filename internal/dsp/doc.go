// Package dsp drives a consumer and a provider connector through the
// dataspace protocol: catalog discovery, contract negotiation, transfer and
// data retrieval.
//
// Ownership boundary:
// - management API request shapes and response field extraction
// - phase ordering and per-phase convergence waits
// - error classification (transport, remote terminal, local resolution)
//
// Remote state machines are observed, never driven past a request.
package dsp
