package registry

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/conshell/pkg/domain"
)

var positiveInt = regexp.MustCompile(`^[1-9]\d*$`)

// Validationf builds an error that wraps domain.ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrValidation, fmt.Sprintf(format, args...))
}

// RequireArg fails when arg is blank.
func RequireArg(arg string) error {
	if strings.TrimSpace(arg) == "" {
		return Validationf("argument is required")
	}
	return nil
}

// ParsePositiveInt accepts only a decimal integer greater than zero.
func ParsePositiveInt(arg string) (int, error) {
	if err := RequireArg(arg); err != nil {
		return 0, err
	}
	if !positiveInt.MatchString(arg) {
		return 0, Validationf("%q is not a positive integer", arg)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, Validationf("%q is out of range", arg)
	}
	return n, nil
}

// ParseEnum resolves arg against names, first as an ordinal and then as a
// case-insensitive name.
func ParseEnum(arg string, names ...string) (int, error) {
	if err := RequireArg(arg); err != nil {
		return 0, err
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 || n >= len(names) {
			return 0, Validationf("%d is out of range 0..%d", n, len(names)-1)
		}
		return n, nil
	}
	for i, name := range names {
		if strings.EqualFold(name, arg) {
			return i, nil
		}
	}
	return 0, Validationf("%q is not one of %s", arg, strings.Join(names, ", "))
}
