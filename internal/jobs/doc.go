// Package jobs models the server-side generation job as observed by the
// client. The backend owns the job lifecycle; this package only represents
// read snapshots and the terminal-state rules applied to them.
package jobs
