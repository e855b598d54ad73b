package conshell

import (
	"github.com/aretw0/conshell/pkg/registry"
	"github.com/aretw0/conshell/pkg/shell"
)

type (
	// Shell dispatches command lines and owns the execution mode.
	Shell = shell.Shell
	// Option configures a Shell.
	Option = shell.Option
	// Info identifies the application in the version card.
	Info = shell.Info
	// Entry is a command descriptor bound to its handler.
	Entry = registry.Entry
	// Invocation is the context a handler runs with.
	Invocation = registry.Invocation
	// HandlerFunc implements one command.
	HandlerFunc = registry.HandlerFunc
)

// Re-exported options for the most common setups.
var (
	WithInfo     = shell.WithInfo
	WithCommands = shell.WithCommands
	WithMarker   = shell.WithMarker
	WithListen   = shell.WithListen
	WithLogger   = shell.WithLogger
)

// New builds a shell with the built-in commands plus the ones given through
// WithCommands. The version card defaults to the module version.
func New(opts ...Option) (*Shell, error) {
	return shell.New(append([]Option{shell.WithInfo(Info{Title: shell.DefaultTitle, Version: Version})}, opts...)...)
}

// Command declares a host command.
func Command(name, args, description string, arity int, fn HandlerFunc) Entry {
	return registry.Command(name, args, description, arity, fn)
}
