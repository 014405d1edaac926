// Package dispatch fans slice transcription work out over a bounded worker
// pool, skipping slices the job store already marks complete.
package dispatch
