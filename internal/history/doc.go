// Package history is the retained-record core: an in-memory store keyed by
// hour-of-month address, the retention planner that decides which addresses
// survive each cycle, and the aggregation that turns retained records into
// published attributes.
//
// The planner and aggregator are pure functions over the store so every
// retention and rollup decision is unit-testable without a running service.
// All state fits comfortably in memory (at the maximum 168-hour window a
// store holds 169 records) and is rebuilt from the upstream history table
// within a cycle or two of a restart, so nothing here persists to disk.
package history
