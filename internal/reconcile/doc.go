// Package reconcile maps job submissions and poll events onto the local
// view-state machine backing the CLI:
//
//	idle -> submitting -> polling -> completed | failed -> (reset) -> idle
//
// Side effects (balance refresh, notifications, task persistence) are
// injected so the machine stays testable without a live backend.
package reconcile
