package entities

import "strings"

// generationalSuffixes are trailing name tokens stripped during
// normalization, with or without a trailing period ("Jr.", "III").
var generationalSuffixes = map[string]struct{}{
	"jr": {}, "sr": {},
	"ii": {}, "iii": {}, "iv": {}, "v": {},
	"vi": {}, "vii": {}, "viii": {}, "ix": {}, "x": {},
}

// punctReplacer turns commas and periods used as word separators into spaces.
var punctReplacer = strings.NewReplacer(",", " ", ".", " ")

// NormalizeName converts a raw name into its comparison key: lowercased,
// comma/period separators removed, whitespace collapsed, and trailing
// generational suffixes stripped. Separators go first so a fused suffix
// ("Hernandez,Jr.") is seen as its own token, and stripping loops so
// stacked suffixes cannot survive one pass - the result is a fixed point
// of the function. It is pure and total; every input, including the
// empty string, produces a key ("" normalizes to "").
func NormalizeName(raw string) string {
	name := punctReplacer.Replace(strings.ToLower(raw))
	fields := strings.Fields(name)

	// Strip trailing generational suffixes, but never the whole name.
	for len(fields) > 1 {
		if _, ok := generationalSuffixes[fields[len(fields)-1]]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}

	return strings.Join(fields, " ")
}

// InvertName detects a "Last, First" pattern (a single comma splitting
// exactly two segments) and re-renders it as "First Last" before
// normalizing, so names stored in reversed order can be compared against
// names in natural order. Inputs without that pattern normalize as-is.
func InvertName(raw string) string {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return NormalizeName(raw)
	}

	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])
	if last == "" || first == "" {
		return NormalizeName(raw)
	}

	// "Hernandez, Jr." is a suffix, not a reversed first name.
	if _, ok := generationalSuffixes[strings.ToLower(strings.TrimSuffix(first, "."))]; ok {
		return NormalizeName(raw)
	}

	return NormalizeName(first + " " + last)
}
