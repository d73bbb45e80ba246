// Package preflight provides readiness checks for the backend service
// and filesystem paths that adforge depends on.
//
// These checks run in two contexts:
//   - The generate and watch commands call RunAll before submitting work.
//     If any check fails, the run stops before credits are spent.
//   - The CLI "adforge status" command uses individual check functions
//     (CheckBackend, CheckDirectoryAccess) to display client health.
package preflight
