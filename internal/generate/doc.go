// Package generate defines the ad generation request and its local
// validation rules. Validation runs before any network activity so a
// malformed request never reaches the backend.
package generate
