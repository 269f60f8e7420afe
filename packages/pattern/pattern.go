package pattern

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a compiled extraction pattern.
type Pattern struct {
	re     *regexp.Regexp
	global bool
}

// Compile parses p and compiles it.
func Compile(p string) (*Pattern, error) {
	expr, flags, global, err := split(p)
	if err != nil {
		return nil, err
	}
	return compile(expr, flags, global)
}

// CompileFold is like Compile but always matches case-insensitively.
func CompileFold(p string) (*Pattern, error) {
	expr, flags, global, err := split(p)
	if err != nil {
		return nil, err
	}
	if !strings.ContainsRune(flags, 'i') {
		flags += "i"
	}
	return compile(expr, flags, global)
}

// MustCompile is like Compile but panics on error.
func MustCompile(p string) *Pattern {
	c, err := Compile(p)
	if err != nil {
		panic(err)
	}
	return c
}

// Global reports whether the pattern carried the g flag.
func (p *Pattern) Global() bool {
	return p.global
}

func (p *Pattern) MatchString(s string) bool {
	return p.re.MatchString(s)
}

// String returns the RE2 source.
func (p *Pattern) String() string {
	return p.re.String()
}

// Find returns the first capture group of a match, or the whole match when
// the pattern has no groups. A global pattern returns every match joined by
// "\n". It returns "" when nothing matches.
func (p *Pattern) Find(text string) string {
	if !p.global {
		return pick(p.re.FindStringSubmatch(text))
	}
	var out []string
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		out = append(out, pick(m))
	}
	return strings.Join(out, "\n")
}

// FindLines returns the complete lines of text touched by a match: the first
// match, or every match for a global pattern. Lines keep their order and are
// joined by "\n".
func (p *Pattern) FindLines(text string) string {
	n := 1
	if p.global {
		n = -1
	}
	locs := p.re.FindAllStringIndex(text, n)
	if len(locs) == 0 {
		return ""
	}

	var spans [][2]int
	for _, loc := range locs {
		start := strings.LastIndexByte(text[:loc[0]], '\n') + 1
		end := loc[1]
		if end > loc[0] && text[end-1] == '\n' {
			end--
		}
		if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
			end += i
		} else {
			end = len(text)
		}

		if k := len(spans) - 1; k >= 0 && start <= spans[k][1] {
			if end > spans[k][1] {
				spans[k][1] = end
			}
			continue
		}
		spans = append(spans, [2]int{start, end})
	}

	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = text[s[0]:s[1]]
	}
	return strings.Join(parts, "\n")
}

func pick(m []string) string {
	switch len(m) {
	case 0:
		return ""
	case 1:
		return m[0]
	}
	return m[1]
}

func split(p string) (expr, flags string, global bool, err error) {
	if len(p) >= 4 && strings.HasPrefix(p, "//") && strings.HasSuffix(p, "//") {
		return p[2 : len(p)-2], "", false, nil
	}

	if len(p) >= 2 && p[0] == '/' {
		last := strings.LastIndexByte(p, '/')
		if last > 0 && isLetters(p[last+1:]) {
			var rf strings.Builder
			for _, f := range p[last+1:] {
				switch f {
				case 'i', 's', 'm':
					if !strings.ContainsRune(rf.String(), f) {
						rf.WriteRune(f)
					}
				case 'g':
					global = true
				case 'u', 'y':
				default:
					return "", "", false, fmt.Errorf("unsupported regular expression flag %q in %s", f, p)
				}
			}
			return p[1:last], rf.String(), global, nil
		}
	}

	return p, "", false, nil
}

func compile(expr, flags string, global bool) (*Pattern, error) {
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Pattern{re: re, global: global}, nil
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
