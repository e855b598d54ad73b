/*
Package shell is the dispatch engine and execution-mode state machine.

A Shell owns an immutable command registry (built-in commands plus the host's
commands), the current output format and the execution mode. Command lines
reach it from the command line of the process, the interactive console, the
network transports and any other adapter holding a registry.Dispatcher.

# Modes

	Idle ──--run──▶ Continuous ──--quit──▶ exit(0)
	  │
	  └──--start──▶ NetworkService | ContinuousNetworkService ──--stop──▶ exit(0)

Idle is the one-shot mode: the first reported error ends the process.
In the other modes errors are reported and input continues.

# Concurrency

Dispatch may run concurrently from the console goroutine and transport
goroutines. Every result is written to its writer with a single Write call;
output from different sources may interleave line by line.
*/
package shell
