/*
Package conshell is a command-dispatch shell for console applications that
can also be driven over the network.

A host application registers commands; conshell turns every input line,
whether it comes from the process arguments, the interactive console or a
TCP/UDP client, into an ordered sequence of command invocations.

# Concept

Every command is addressed by a token made of a marker (default "-") and a
name, and consumes a fixed number of positional arguments. A line such as

	-of json -sp 200 -next

runs three commands in order. Built-in commands switch the process between
four execution modes:

	Idle ──--run──► Continuous ──--quit──► Idle
	Idle ──--start──► NetworkService | ContinuousNetworkService ──--stop──► Idle

Results are rendered as plain text, JSON or XML depending on the output
format selected with -of.

# Usage

	package main

	import (
		"context"
		"os"

		"github.com/aretw0/conshell"
	)

	func main() {
		sh, err := conshell.New(
			conshell.WithInfo(conshell.Info{Title: "Slides"}),
			conshell.WithCommands(
				conshell.Command("next", "", "go to the next slide", 0, next),
			),
		)
		if err != nil {
			panic(err)
		}
		sh.Run(context.Background(), os.Args[1:])
	}

The conshell binary in cmd/conshell wires the same shell from a YAML
configuration file and CONSHELL_* environment variables.

# Packages

  - pkg/registry: command descriptors, lookup and usage lines.
  - pkg/tokenizer: quote-aware line splitting.
  - pkg/shell: dispatch, help protocol and the execution-mode state machine.
  - pkg/transport: TCP and UDP servers feeding lines into the dispatcher.
  - pkg/output: text, JSON and XML rendering of results.
  - pkg/adapters: instance locks (file, Redis, memory), status HTTP and MCP surfaces.
*/
package conshell
