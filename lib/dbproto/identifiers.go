package dbproto

import (
	"fmt"
	"regexp"

	"github.com/sindri-systems/jsonreg/lib/errs"
)

const maxIdentifierLen = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdentifier checks that identifier is safe to interpolate
// verbatim into SQL text: it must match [A-Za-z_][A-Za-z0-9_]* and be no
// longer than 63 bytes, matching Postgres's own identifier limit. label
// is used only to make a rejection's message identify which parameter
// failed (e.g. "table name", "id column").
func ValidateIdentifier(identifier, label string) error {
	if identifier == "" {
		return errs.New(errs.InvalidIdentifier, fmt.Sprintf("%s cannot be empty", label), nil)
	}
	if len(identifier) > maxIdentifierLen {
		return errs.New(errs.InvalidIdentifier, fmt.Sprintf("%s exceeds %d characters", label, maxIdentifierLen), nil)
	}
	if !identifierPattern.MatchString(identifier) {
		return errs.New(errs.InvalidIdentifier, fmt.Sprintf("%s must match [A-Za-z_][A-Za-z0-9_]*", label), nil)
	}
	return nil
}
