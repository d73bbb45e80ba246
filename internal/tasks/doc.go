// Package tasks persists the local record of submitted generation jobs.
//
// The backend owns job state; this store only mirrors the snapshots the
// client has observed, so the CLI can list, group, and resume watching
// work across invocations. Grouping views (time buckets, remix lineage)
// are computed in memory over fetched rows.
package tasks
