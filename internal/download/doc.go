// Package download saves completed generation artifacts to local disk.
//
// Artifacts are fetched over HTTP from the result URL the backend reports,
// written through a temporary file, and given collision-safe names derived
// from the prompt so repeated downloads never clobber earlier ones.
package download
