package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/observability"
	"github.com/aretw0/conshell/pkg/output"
	"github.com/aretw0/conshell/pkg/registry"
)

// Dispatch executes one command line.
//
// Tokens are walked left to right. Each command consumes up to its arity of
// following tokens, stopping at the next token carrying the marker. A command
// followed by "?" or "help" prints its usage and ends the line. An unknown
// token is reported and ends the line; its error is returned. Handler errors
// are reported attributed to the command and the line continues.
//
// In Idle mode the first reported error of a console line ends the process
// with code 0.
func (s *Shell) Dispatch(ctx context.Context, tokens []string, origin domain.Origin, out io.Writer) error {
	if out == nil {
		out = s.out()
	}
	if len(tokens) == 0 {
		s.writeHelp(out)
		return nil
	}

	for i := 0; i < len(tokens); {
		token := tokens[i]
		i++

		entry, ok := s.reg.Lookup(token)
		if !ok {
			err := fmt.Errorf("%w %s", domain.ErrUnknownCommand, token)
			s.metrics.DispatchError(observability.KindUnknown)
			s.logger.Debug("unresolved token", "token", token, "origin", origin.Kind)
			s.report(out, origin, output.ErrorResult(err.Error()))
			return err
		}

		if i < len(tokens) && isHelpToken(tokens[i]) {
			io.WriteString(out, s.reg.Usage(entry.Descriptor)+"\n")
			return nil
		}

		args := make([]string, entry.Descriptor.Arity)
		for j := range args {
			if i >= len(tokens) || s.reg.HasMarker(tokens[i]) {
				break
			}
			args[j] = tokens[i]
			i++
		}

		s.invoke(ctx, entry, token, args, origin, out)
		if s.exited.Load() {
			return nil
		}
	}
	return nil
}

func (s *Shell) invoke(ctx context.Context, entry registry.Entry, token string, args []string, origin domain.Origin, out io.Writer) {
	d := entry.Descriptor
	if !d.Control {
		s.inflight.Add(1)
		defer s.inflight.Add(-1)
	}

	name := s.reg.Token(d)
	s.metrics.CommandDispatched(name)
	s.logger.Debug("dispatch", "command", name, "args", args, "origin", origin.Kind, "conn", origin.Conn)

	inv := &registry.Invocation{
		Descriptor: d,
		Token:      token,
		Args:       args,
		Origin:     origin,
		Out:        out,
		FormatFunc: s.Format,
	}
	if err := safeCall(ctx, entry.Handler, inv); err != nil {
		s.metrics.DispatchError(errorKind(err))
		s.logger.Debug("command failed", "command", name, "err", err)
		s.report(out, origin, output.ErrorResult(name+" "+err.Error()))
	}
}

// safeCall turns a handler panic into an error.
func safeCall(ctx context.Context, fn registry.HandlerFunc, inv *registry.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, inv)
}

// report writes an error result. An error in a one-shot Idle invocation ends
// the process; tool surfaces that dispatch while Idle are not affected.
func (s *Shell) report(out io.Writer, origin domain.Origin, r *output.Result) {
	if err := registry.Emit(out, r, s.Format()); err != nil {
		s.logger.Error("failed to write result", "err", err)
	}
	if s.mode.Get() == domain.ModeIdle && origin.Kind != domain.OriginMCP && !origin.IsRemote() {
		s.terminate(0)
	}
}

func (s *Shell) writeHelp(out io.Writer) {
	descriptors := s.reg.Descriptors()

	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = s.reg.Token(d)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [%s]\n", s.info.Title, strings.Join(names, " | "))
	for _, d := range descriptors {
		b.WriteString(s.reg.Usage(d))
		b.WriteByte('\n')
	}
	io.WriteString(out, b.String())
}

func isHelpToken(token string) bool {
	return token == "?" || strings.EqualFold(token, "help")
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return observability.KindValidation
	case errors.Is(err, domain.ErrIllegalTransition):
		return observability.KindTransition
	default:
		return observability.KindHandler
	}
}
