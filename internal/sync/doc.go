// Package sync uploads parsed vote data to the destination store.
//
// Each batch run walks one meeting's motions and writes three record kinds:
// the Meeting (idempotent on its portal ID), one Motion per divided vote,
// and one Vote per councillor name per motion. Councillor names resolve to
// durable records by exact match, then by a last-name heuristic, then by
// creating a new record; resolutions are cached for the life of one run.
//
// Every unit of work produces an explicit Result (created, skipped, or
// failed with a reason) instead of raising; no single bad record stops the
// batch.
package sync
