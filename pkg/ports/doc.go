/*
Package ports defines the driven ports (interfaces) of conshell.

These interfaces keep the dispatch core independent of platform and network
details, so that shells can be tested with in-memory locks and loopback
transports.

# Key Interfaces

  - Transport / TransportEvents: A stream or datagram listener and its notifications.
  - DataHandler: The strategy that turns a received payload into a dispatch.
  - InstanceLocker: The process-wide single-instance lock.
  - ShutdownHook: Interception of abrupt termination requests.
*/
package ports
