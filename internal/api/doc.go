// Package api implements the REST client for the adforge backend.
//
// The backend owns all heavy lifting (generation, OAuth token exchange,
// credit accounting); this client submits requests, reads job snapshots,
// and maps HTTP failures onto the shared services error taxonomy:
//
//   - HTTP 402            -> services.ErrQuota
//   - HTTP 404            -> services.ErrNotFound
//   - other 4xx           -> services.ErrProvider (message passed through)
//   - 5xx and transport   -> services.ErrTransient
//
// An envelope of {"success": bool, "data": ..., "message": ...} wraps every
// response; success=false in a 200 is treated the same as a failed request.
package api
