package neardup

import (
	"strings"
)

// Placeholders substituted during normalization.
const (
	PlaceholderString     = "STR"
	PlaceholderNumber     = "NUM"
	PlaceholderIdentifier = "ID"
)

// NormalizeOptions controls the rename-tolerant steps of normalization.
type NormalizeOptions struct {
	CollapseLiterals    bool
	CollapseIdentifiers bool
	// AllowList holds identifiers that survive collapsing verbatim.
	AllowList []string
}

// Normalizer rewrites source text into the canonical form used for
// comparison. A Normalizer is read-only after construction and safe for
// concurrent use.
type Normalizer struct {
	opts  NormalizeOptions
	allow map[string]struct{}
}

// NewNormalizer builds a normalizer from options.
func NewNormalizer(opts NormalizeOptions) *Normalizer {
	allow := make(map[string]struct{}, len(opts.AllowList)+3)
	for _, id := range opts.AllowList {
		allow[id] = struct{}{}
	}
	// placeholders must survive a second pass
	allow[PlaceholderString] = struct{}{}
	allow[PlaceholderNumber] = struct{}{}
	allow[PlaceholderIdentifier] = struct{}{}
	return &Normalizer{opts: opts, allow: allow}
}

// Normalize applies, in order: comment stripping, whitespace collapsing,
// literal collapsing and identifier collapsing. The result is idempotent:
// Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(text string) string {
	out := stripComments(text)
	out = collapseWhitespace(out)
	if n.opts.CollapseLiterals {
		out = collapseLiterals(out)
	}
	if n.opts.CollapseIdentifiers {
		out = n.collapseIdentifiers(out)
	}
	return out
}

// stripComments removes /* */ and // comments outside string literals.
// Block comments become a single space so that neighbouring tokens never fuse.
// A // directly after ':' is kept (URL schemes).
func stripComments(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	var prev byte
	emit := func(b byte) {
		sb.WriteByte(b)
		prev = b
	}

	for i := 0; i < len(s); {
		c := s[i]

		if isQuoteStart(c, prev) {
			if end, ok := scanString(s, i); ok {
				sb.WriteString(s[i:end])
				prev = s[end-1]
				i = end
				continue
			}
			emit(c)
			i++
			continue
		}

		if c == '/' && i+1 < len(s) {
			switch s[i+1] {
			case '*':
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					i = len(s)
				} else {
					i += 2 + end + 2
				}
				emit(' ')
				continue
			case '/':
				if prev == ':' {
					emit('/')
					emit('/')
					i += 2
					continue
				}
				end := strings.IndexByte(s[i:], '\n')
				if end < 0 {
					i = len(s)
				} else {
					i += end
				}
				continue
			}
		}

		emit(c)
		i++
	}

	return sb.String()
}

// collapseWhitespace turns every whitespace run into one space and trims.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// collapseLiterals replaces string literals with STR and numeric literals
// with NUM.
func collapseLiterals(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		var prev byte
		if i > 0 {
			prev = s[i-1]
		}

		if isQuoteStart(c, prev) {
			if end, ok := scanString(s, i); ok {
				sb.WriteString(PlaceholderString)
				i = end
				continue
			}
		}

		if isDigit(c) && !isIdentByte(prev) {
			j := i + 1
			for j < len(s) && (isIdentByte(s[j]) || s[j] == '.') {
				j++
			}
			sb.WriteString(PlaceholderNumber)
			i = j
			continue
		}

		sb.WriteByte(c)
		i++
	}

	return sb.String()
}

// collapseIdentifiers replaces identifiers outside the allow list with ID.
// Tag markers (<Name, </Name) and string literals are kept verbatim.
func (n *Normalizer) collapseIdentifiers(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	for i := 0; i < len(s); {
		c := s[i]
		var prev byte
		if i > 0 {
			prev = s[i-1]
		}

		if isQuoteStart(c, prev) {
			if end, ok := scanString(s, i); ok {
				sb.WriteString(s[i:end])
				i = end
				continue
			}
		}

		if c == '<' {
			j := i + 1
			if j < len(s) && s[j] == '/' {
				j++
			}
			if j < len(s) && isIdentStart(s[j]) {
				end := scanIdent(s, j)
				sb.WriteString(s[i:end])
				i = end
				continue
			}
		}

		if isIdentByte(c) {
			end := scanIdent(s, i)
			word := s[i:end]
			switch {
			case !isIdentStart(c):
				// numeric run such as 10px or 0x1f
				sb.WriteString(word)
			case n.allowed(word):
				sb.WriteString(word)
			default:
				sb.WriteString(PlaceholderIdentifier)
			}
			i = end
			continue
		}

		sb.WriteByte(c)
		i++
	}

	return sb.String()
}

func (n *Normalizer) allowed(word string) bool {
	_, ok := n.allow[word]
	return ok
}

// isQuoteStart reports whether c opens a string literal given the byte
// before it. A ' directly after an identifier byte is an apostrophe in
// prose (JSX text such as Don't), not a literal.
func isQuoteStart(c, prev byte) bool {
	switch c {
	case '"', '`':
		return true
	case '\'':
		return !isIdentByte(prev)
	}
	return false
}

// scanString returns the index just past the literal that opens at s[i].
// ok is false when the literal is unterminated.
func scanString(s string, i int) (int, bool) {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case quote:
			return j + 1, true
		}
	}
	return len(s), false
}

func scanIdent(s string, i int) int {
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return j
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$'
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
