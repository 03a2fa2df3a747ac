// Package store provides SQLite-backed history of pipeline runs.
//
// The store is an append-only log with:
//   - Runs: one record per executed pipeline (config snapshot, resolved
//     pass order, final state, fingerprints)
//   - Events: the ordered stage, step and verification events of each run
//
// # Ordering
//
// Runs are numbered by insertion (runs.seq) and events by the run's logical
// clock (events.seq). Queries order by seq, then id COLLATE BINARY, never by
// wall time, so a listing is identical on every machine.
//
// # Recording
//
// Events reach the store through a Recorder registered as a pipeline
// observer. The Recorder buffers each run's events until the run finishes,
// then WriteRun stores the run and its events in one transaction.
//
// # Connections
//
// Open passes the SQLite settings (WAL journal, NORMAL sync, a five second
// busy timeout, foreign keys) as DSN parameters and pins the pool to a
// single connection. Schema changes are tracked in PRAGMA user_version.
package store
