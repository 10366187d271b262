// Package convergence owns the bounded polling primitive used to observe
// eventually consistent remote state.
//
// Ownership boundary:
// - probe outcome type (pending / converged / fatal)
// - fixed-interval retry loop bounded by a deadline
// - timeout diagnostics (attempt count, last pending reason)
//
// The waiter never cancels remote work; it only stops observing it.
package convergence
