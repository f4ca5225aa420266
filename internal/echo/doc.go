// Package echo owns a TCP packet echo service and its client.
//
// Ownership boundary:
// - accept loop, per-connection deframing and reply writes
// - admin HTTP surface (health, readiness, profile, metrics)
// - client dial with retry/backoff and request/echo roundtrips
package echo
