package registry

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/conshell/pkg/domain"
	"github.com/aretw0/conshell/pkg/output"
)

// Invocation is the environment a handler runs in. It is valid only for the
// duration of the handler call.
type Invocation struct {
	Descriptor Descriptor
	// Token is the command token as typed.
	Token string
	// Args holds exactly Arity values; missing trailing arguments are "".
	Args []string
	// Origin is the reply target of the dispatch.
	Origin domain.Origin
	// Out receives everything the handler writes.
	Out io.Writer
	// FormatFunc reports the output format in effect.
	FormatFunc func() output.Format
}

// Arg returns the i-th argument or "".
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

// Format returns the output format in effect.
func (inv *Invocation) Format() output.Format {
	if inv.FormatFunc == nil {
		return output.FormatDefault
	}
	return inv.FormatFunc()
}

// Emit renders r in the current format and writes it as one unit.
func (inv *Invocation) Emit(r *output.Result) error {
	return Emit(inv.Out, r, inv.Format())
}

// Printf writes free text as one unit.
func (inv *Invocation) Printf(format string, args ...any) {
	fmt.Fprintf(inv.Out, format, args...)
}

// Emit renders r in format f and writes it to w with a single Write call.
func Emit(w io.Writer, r *output.Result, f output.Format) error {
	text, err := output.Render(r, f)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text+"\n")
	return err
}

// Dispatcher executes command lines. Adapters that carry text from other
// surfaces (sockets, tool protocols) depend on this instead of a concrete shell.
type Dispatcher interface {
	Dispatch(ctx context.Context, tokens []string, origin domain.Origin, out io.Writer) error
	Registry() *Registry
}
