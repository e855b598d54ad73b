/*
Package observability exposes Prometheus collectors for the shell.

Counters cover dispatched commands and dispatch failures; gauges and counters
track transport connections and received bytes. A nil *Metrics is valid and
records nothing, so components can take one unconditionally.
*/
package observability
