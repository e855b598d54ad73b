package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
)

// DefaultMarker is the prefix that identifies a token as a command name.
const DefaultMarker = "-"

// HandlerFunc implements one command. A returned error is reported on the
// shared error channel, attributed to the command.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Descriptor is the immutable metadata of a command.
type Descriptor struct {
	// Name without the marker, e.g. "of" for "-of".
	Name string
	// Args is the argument placeholder shown in usage, e.g. "(int ms)".
	Args string
	// Description is the human-readable usage text.
	Description string
	// Arity is the number of positional arguments consumed after the name.
	Arity int
	// Control marks mode-control commands. They are not counted as in-flight
	// work and are not exposed to remote tool surfaces.
	Control bool
}

// Entry binds a descriptor to its handler.
type Entry struct {
	Descriptor Descriptor
	Handler    HandlerFunc
}

// Command is a convenience constructor for an Entry.
func Command(name, args, description string, arity int, fn HandlerFunc) Entry {
	return Entry{
		Descriptor: Descriptor{Name: name, Args: args, Description: description, Arity: arity},
		Handler:    fn,
	}
}

// Registry resolves command tokens to handlers.
// It is immutable after New and safe for concurrent use.
type Registry struct {
	marker  string
	entries map[string]Entry
	order   []Descriptor
}

// New builds a registry. Every name is normalized as marker+name in lower
// case; registering the same normalized name twice is a configuration error.
func New(marker string, entries ...Entry) (*Registry, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	r := &Registry{
		marker:  marker,
		entries: make(map[string]Entry, len(entries)),
		order:   make([]Descriptor, 0, len(entries)),
	}
	for _, e := range entries {
		if err := r.register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNew is like New but panics on a configuration error.
func MustNew(marker string, entries ...Entry) *Registry {
	r, err := New(marker, entries...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) register(e Entry) error {
	if strings.TrimSpace(e.Descriptor.Name) == "" {
		return fmt.Errorf("command name is required")
	}
	if e.Handler == nil {
		return fmt.Errorf("command %s%s has no handler", r.marker, e.Descriptor.Name)
	}
	if e.Descriptor.Arity < 0 {
		return fmt.Errorf("command %s%s has negative arity", r.marker, e.Descriptor.Name)
	}

	key := r.normalize(r.marker + e.Descriptor.Name)
	if existing, ok := r.entries[key]; ok {
		return fmt.Errorf("%w: %s is bound to %q and %q", domain.ErrDuplicateCommand,
			r.marker+e.Descriptor.Name, existing.Descriptor.Description, e.Descriptor.Description)
	}
	r.entries[key] = e
	r.order = append(r.order, e.Descriptor)
	return nil
}

func (r *Registry) normalize(token string) string {
	return strings.ToLower(token)
}

// Lookup resolves a token (marker included) case-insensitively.
func (r *Registry) Lookup(token string) (Entry, bool) {
	e, ok := r.entries[r.normalize(token)]
	return e, ok
}

// Descriptors returns all descriptors in declaration order.
func (r *Registry) Descriptors() []Descriptor {
	return append([]Descriptor(nil), r.order...)
}

// Marker returns the command marker prefix.
func (r *Registry) Marker() string {
	return r.marker
}

// HasMarker reports whether token starts with the command marker.
func (r *Registry) HasMarker(token string) bool {
	return strings.HasPrefix(token, r.marker)
}

// Token returns the full command token of d, e.g. "-of".
func (r *Registry) Token(d Descriptor) string {
	return r.marker + d.Name
}

// Usage renders the one-line usage of d:
// marker+name, the argument placeholder in brackets, then the description.
// Continuation lines of a multi-line description are aligned under it.
func (r *Registry) Usage(d Descriptor) string {
	args := d.Args
	if strings.TrimSpace(args) == "" {
		args = " "
	}
	indent := "\n" + strings.Repeat(" ", 4+10+24)
	description := strings.ReplaceAll(strings.ReplaceAll(d.Description, "\r\n", "\n"), "\n", indent)
	return fmt.Sprintf("    %-10s%-24s%s", r.Token(d), "["+args+"]", description)
}
