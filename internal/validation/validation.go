package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Error collects per-field validation messages.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// ErrInvalidSymbol is returned by ValidateSymbol.
var ErrInvalidSymbol = fmt.Errorf("invalid ticker symbol")

// Yahoo symbols: letters, digits and the separators used for share classes,
// exchanges, indices, futures and currency pairs (BRK-B, VWRL.AS, ^GSPC, ES=F).
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9^][A-Za-z0-9.\-=^]{0,19}$`)

// ValidateSymbol checks that s looks like a ticker symbol.
func ValidateSymbol(s string) error {
	if !symbolPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return nil
}
