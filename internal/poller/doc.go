// Package poller watches backend jobs until they reach a terminal state.
//
// Each watched job owns exactly one Session. A session polls immediately,
// then on a fixed interval, classifying every response:
//
//   - non-terminal: progress event, keep polling
//   - completed with artifact: completed event, stop
//   - completed without artifact: failure event, stop
//   - failed/cancelled: failure event, stop
//   - not found: tolerated twice, promoted to failure on the third
//     consecutive occurrence
//   - transient errors: logged and ignored, the session never gives up
//     on an isolated network blip
//
// Sessions latch on the first terminal classification; a stale non-terminal
// response observed afterwards is discarded. Stopping is idempotent and
// guaranteed on terminal state, give-up, and owner teardown. A session has
// no overall wall-clock timeout: a job stuck in processing polls until its
// owner stops watching.
package poller
