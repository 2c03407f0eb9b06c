package compound

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/glycotrace/glycotrace/pkg/errors"
)

// sialicByLetter maps the second prefix letter to the sialic-acid count.
var sialicByLetter = map[byte]int{
	'A': 0, 'M': 1, 'D': 2, 'T': 3, 'Q': 4, 'P': 5,
}

// neutralSugarBase is the reference count the series digit subtracts from:
// series digit f yields 5−f neutral sugars.
const neutralSugarBase = 5

// modifierIncrements maps a recognised modifier token (without multiplier and
// leading '+') to its sugar-unit contribution.
var modifierIncrements = map[string]int{
	"dHex":   1,
	"HexNAc": 1,
	"OAc":    1,
}

// modifierRe splits an optional leading multiplier digit from the token body:
// "2OAc" → ("2", "OAc").
var modifierRe = regexp.MustCompile(`^(\d*)([A-Za-z]+)$`)

// ParsePrefix computes the sugar composition and modification counts of a
// prefix string such as "GM1", "GD1+dHex" or "GT1b+2OAc".
//
// Grammar: position 0 is the family letter; position 1 maps A/M/D/T/Q/P to
// 0..5 sialic acids; position 2 is the series digit f in 0..4 giving 5−f
// neutral sugars; an optional isomer letter follows; each "+token" adds its
// fixed increment, multiplied by a leading digit if present.
func ParsePrefix(prefix string) (SugarProfile, Modifications, error) {
	var profile SugarProfile
	var mods Modifications

	tokens := strings.Split(prefix, "+")
	base := tokens[0]
	if len(base) < 3 {
		return profile, mods, errors.New(errors.ErrCodeRowInvalid, "prefix too short").WithDetail(prefix)
	}

	sialic, ok := sialicByLetter[base[1]]
	if !ok {
		return profile, mods, errors.New(errors.ErrCodeRowInvalid,
			"unknown sialic-acid letter").WithDetail(string(base[1]))
	}

	series := int(base[2] - '0')
	if series < 0 || series > 4 {
		return profile, mods, errors.New(errors.ErrCodeRowInvalid,
			"series digit out of range 0..4").WithDetail(string(base[2]))
	}

	profile.SialicAcids = sialic
	profile.NeutralSugars = neutralSugarBase - series

	for _, tok := range tokens[1:] {
		m := modifierRe.FindStringSubmatch(tok)
		if m == nil {
			return profile, mods, errors.New(errors.ErrCodeRowInvalid,
				"malformed modifier token").WithDetail("+" + tok)
		}
		count := 1
		if m[1] != "" {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return profile, mods, errors.New(errors.ErrCodeRowInvalid,
					"bad modifier multiplier").WithDetail("+" + tok)
			}
			count = n
		}

		inc, known := modifierIncrements[m[2]]
		if !known {
			// Unrecognised modifiers are structural annotations we cannot
			// attribute sugar units to; keep the compound but add nothing.
			continue
		}
		profile.Additional += inc * count

		switch m[2] {
		case "OAc":
			mods.OAc += count
		case "dHex":
			mods.DHex += count
		case "HexNAc":
			mods.HexNAc += count
		}
	}

	return profile, mods, nil
}
