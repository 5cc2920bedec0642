// Package solar produces the daily solar event table for the configured
// location. Calculator computes the events locally; Cache reuses a computed
// table for a validity window and falls back to the last good table when a
// recomputation fails.
package solar
