// Package watcher refreshes open tasks against the backend in the
// background.
//
// It holds a flock-based lock so only one refresher runs per data
// directory, polls every open task on a fixed cadence, reconciles the
// fetched snapshots into the local store, and pushes notifications when a
// task reaches a terminal state.
package watcher
