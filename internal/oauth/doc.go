// Package oauth completes ad platform connections.
//
// The provider redirects the browser to a local callback with either an
// authorization code plus an opaque state token, or an error. Reconcile
// classifies every callback into one of four outcomes (success,
// provider-error, backend-error, missing-parameters); provider errors
// short-circuit without ever contacting the backend. Outcomes carry the
// timed-redirect delay the result page honors before navigating away.
package oauth
