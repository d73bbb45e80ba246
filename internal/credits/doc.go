// Package credits interprets the backend credit-balance payload.
//
// The server contract does not pin the balance field name; observed
// responses have carried total_credits, balance, or credits. The probe
// tolerates all three but logs when the primary key is absent so schema
// drift shows up as a monitoring signal instead of being silently
// normalized away.
package credits
