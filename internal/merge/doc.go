// Package merge applies a numbered phase of pattern additions to the
// master pattern document.
//
// The pure Apply step rejects duplicate phases and group collisions and
// keeps the aggregate counters reconciled. The Service wraps Apply with the
// file boundary: advisory lock, pre-merge backup, and an atomic
// write-then-rename so a failed integration never leaves a partially
// written document behind.
package merge
