/*
Package domain contains the core types shared by every conshell component.

It defines the execution modes, connection identities, transport notifications
and the sentinel errors used across the dispatch pipeline. This package is kept
free of I/O so that registries, transports and shells can depend on it without
depending on each other.

# Key Types

  - Mode: The process-wide execution mode (Idle, Continuous, NetworkService, ContinuousNetworkService).
  - ConnID / TransportKind: The peer identity of a network connection.
  - ServerState: Transport lifecycle notifications (Listening, Connected, Closed, ...).
  - Origin: The implicit reply target carried through one dispatch.
*/
package domain
