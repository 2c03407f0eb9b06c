package compound

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/glycotrace/glycotrace/pkg/errors"
)

// Name grammar: Prefix(Suffix)
//
//	Prefix ::= [A-Z] [AMDTQP] [0-9] isomer? ("+" token)*
//	Suffix ::= carbon ":" unsaturation ";O" oxygen?
//
// where isomer is an optional lowercase letter ("GD1a", "GT1b").  Examples:
// "GM1(36:1;O2)", "GD1+dHex(38:2;O3)", "GT1b(36:1;O2)".
var (
	nameRe   = regexp.MustCompile(`^([^()]+)\(([^()]+)\)$`)
	prefixRe = regexp.MustCompile(`^[A-Z][AMDTQP][0-9][a-z]?(\+[A-Za-z0-9]+)*$`)
	suffixRe = regexp.MustCompile(`^(\d+):(\d+);O(\d*)$`)
)

// ParseName parses a raw compound name into a Record with every derived
// structural descriptor populated.  Measurement columns (RT, Volume, LogP,
// IsAnchor) are left zero for the caller to fill.
//
// Malformed names return an ErrCodeRowInvalid error carrying the specific
// grammar violation; callers drop the row and keep the batch alive.
func ParseName(name string) (*Record, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, errors.New(errors.ErrCodeRowInvalid, "empty compound name")
	}

	m := nameRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, errors.New(errors.ErrCodeRowInvalid, "name does not match Prefix(Suffix)").
			WithDetail(trimmed)
	}
	prefix, suffix := m[1], m[2]

	if !prefixRe.MatchString(prefix) {
		return nil, errors.New(errors.ErrCodeRowInvalid, "invalid prefix").WithDetail(prefix)
	}

	sm := suffixRe.FindStringSubmatch(suffix)
	if sm == nil {
		return nil, errors.New(errors.ErrCodeRowInvalid, "invalid lipid-chain suffix").WithDetail(suffix)
	}

	carbon, err := strconv.Atoi(sm[1])
	if err != nil {
		return nil, errors.New(errors.ErrCodeRowInvalid, "non-numeric carbon count").WithDetail(suffix)
	}
	unsat, err := strconv.Atoi(sm[2])
	if err != nil {
		return nil, errors.New(errors.ErrCodeRowInvalid, "non-numeric unsaturation").WithDetail(suffix)
	}
	oxygen := 1 // ";O" with no digit means a single oxygen
	if sm[3] != "" {
		oxygen, err = strconv.Atoi(sm[3])
		if err != nil {
			return nil, errors.New(errors.ErrCodeRowInvalid, "non-numeric oxygen count").WithDetail(suffix)
		}
	}

	sugars, mods, err := ParsePrefix(prefix)
	if err != nil {
		return nil, err
	}

	return &Record{
		Name:         trimmed,
		Prefix:       prefix,
		BasePrefix:   basePrefix(prefix),
		Suffix:       suffix,
		CarbonCount:  carbon,
		Unsaturation: unsat,
		OxygenCount:  oxygen,
		Sugars:       sugars,
		Mods:         mods,
	}, nil
}

// basePrefix strips modifier tokens: "GD1+dHex" → "GD1".
func basePrefix(prefix string) string {
	if i := strings.IndexByte(prefix, '+'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}
