package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
)

// Format selects how results are rendered.
type Format int32

const (
	FormatDefault Format = iota
	FormatJSON
	FormatXML
)

var formatNames = []string{"default", "json", "xml"}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// FormatNames returns the symbolic names indexed by ordinal.
func FormatNames() []string {
	return append([]string(nil), formatNames...)
}

// ParseFormat accepts an ordinal (0, 1, 2) or a case-insensitive name
// (default, json, xml). Anything else is a validation error.
func ParseFormat(arg string) (Format, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return FormatDefault, fmt.Errorf("%w: format is required", domain.ErrValidation)
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n >= len(formatNames) {
			return FormatDefault, fmt.Errorf("%w: format %d out of range", domain.ErrValidation, n)
		}
		return Format(n), nil
	}
	for i, name := range formatNames {
		if strings.EqualFold(name, arg) {
			return Format(i), nil
		}
	}
	return FormatDefault, fmt.Errorf("%w: unknown format %q", domain.ErrValidation, arg)
}
