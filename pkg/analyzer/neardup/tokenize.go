package neardup

import "regexp"

// tokenPattern matches tag markers (<Name, </Name) and identifiers.
var tokenPattern = regexp.MustCompile(`</?[A-Za-z_$][\w$]*|[A-Za-z_$][\w$]*`)

// Tokenize splits normalized text into identifier and tag tokens.
// Punctuation, digits and symbols outside tag markers are discarded.
func Tokenize(normalized string) []string {
	return tokenPattern.FindAllString(normalized, -1)
}
