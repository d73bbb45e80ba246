// Package services defines shared utilities consumed by the generation
// workflow and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, flow names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the outcome taxonomy shared by submission, polling, and OAuth
//     reconciliation (validation vs quota vs transient vs provider).
//
// Use these helpers when wiring new flows so operational behaviour (error
// handling, observability, retries) stays uniform across the client.
package services
