// Package notifications pushes generation lifecycle events to ntfy.
//
// The default implementation publishes to the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set, so
// callers never branch on configuration. Notifications cover completed and
// failed generations, connected ad accounts, low credit balances, and
// surfaced errors.
//
// Extend this package if you need alternative transports; all client code
// depends only on the simple Service interface.
package notifications
