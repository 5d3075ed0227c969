package selection

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// wildcard is the only glob metacharacter recognised in table patterns.
const wildcard = "*"

// IsWildcard reports whether pattern contains a wildcard.
func IsWildcard(pattern string) bool {
	return strings.Contains(pattern, wildcard)
}

// Pattern is a compiled table glob.
type Pattern struct {
	re *regexp.Regexp
}

// CompilePattern turns a glob into an anchored expression over folded names.
// Everything except '*' is matched literally. Invalid UTF-8 is replaced with
// U+FFFD, so any input compiles.
func CompilePattern(pattern string) *Pattern {
	parts := strings.Split(strings.ToValidUTF8(pattern, string(utf8.RuneError)), wildcard)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(core.Fold(p))
	}
	return &Pattern{re: regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")}
}

// Match reports whether name matches the pattern under the same case folding
// the selection set uses.
func (p *Pattern) Match(name string) bool {
	return p.re.MatchString(core.Fold(name))
}

// Match resolves patterns against universe and returns the union of the
// matches, deduplicated case-insensitively.
//
// A pattern without '*' is returned verbatim whether or not universe holds it.
// Blank patterns are ignored.
func Match(universe []string, patterns ...string) []string {
	matches := NewSet()
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}

		if !IsWildcard(pattern) {
			matches.Add(pattern)
			continue
		}

		p := CompilePattern(pattern)
		for _, candidate := range universe {
			if p.Match(candidate) {
				matches.Add(candidate)
			}
		}
	}
	return matches.Names()
}
