package validation

import (
	"regexp"
	"strings"

	"github.com/jwalitptl/validation-api/internal/model"
)

// phoneSeparators matches the characters users habitually type into phone
// fields: whitespace, dashes, dots and parentheses.
var phoneSeparators = regexp.MustCompile(`[\s\-.()]`)

// CleanPhone strips separator characters from a raw phone value, leaving
// digits and a possible leading +.
func CleanPhone(raw string) string {
	return phoneSeparators.ReplaceAllString(strings.TrimSpace(raw), "")
}

// Normalizer converts accepted local-format phone values into the canonical
// international storage form and back. It is table-driven: all per-country
// behavior comes from the Country row (phone prefix, trunk prefix), so
// supporting a new country is a data change.
type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// ToCanonical rewrites a cleaned local-format value into international
// form. Already-international values pass through unchanged. Countries with
// a trunk prefix ("0" for AU/NZ/UK) have it replaced by the country's
// international prefix; countries without one (NANP) get the prefix
// prepended.
func (n *Normalizer) ToCanonical(local string, country *model.Country) string {
	if strings.HasPrefix(local, "+") {
		return local
	}
	if country.TrunkPrefix != "" && strings.HasPrefix(local, country.TrunkPrefix) {
		return country.PhonePrefix + local[len(country.TrunkPrefix):]
	}
	return country.PhonePrefix + local
}

// ToDisplay is the inverse of ToCanonical, gated by the rule's strip_prefix
// flag. When the flag is off the stored international form already is the
// locale-familiar one. Otherwise the international prefix is stripped and
// the trunk digit reinserted, then the rule's spacing pattern applied.
func (n *Normalizer) ToDisplay(international string, rule *model.ValidationRule, country *model.Country) string {
	if !rule.StripPrefix {
		return international
	}

	local := international
	if strings.HasPrefix(international, country.PhonePrefix) {
		local = country.TrunkPrefix + international[len(country.PhonePrefix):]
	}

	return applySpacing(local, rule.SpacingPattern)
}

// applySpacing re-inserts the locale's digit grouping. The pattern uses '#'
// as a digit placeholder; any other character is emitted literally, e.g.
// "#### ### ###" renders 0412345678 as "0412 345 678". Input longer than
// the pattern keeps its tail ungrouped; an empty pattern is a no-op.
func applySpacing(value, pattern string) string {
	if pattern == "" {
		return value
	}

	var b strings.Builder
	pos := 0
	for _, r := range pattern {
		if pos >= len(value) {
			break
		}
		if r == '#' {
			b.WriteByte(value[pos])
			pos++
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteString(value[pos:])
	return b.String()
}
