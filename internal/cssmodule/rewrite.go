package cssmodule

import (
	"regexp"
	"strings"
)

var classSelector = regexp.MustCompile(`\.(-?[_a-zA-Z][_a-zA-Z0-9-]*)`)

// Rewrite renames every class selector in css using namer and returns the
// rewritten stylesheet together with the local to scoped name mapping.
//
// Only selector preludes are touched: declarations, at-rule preludes, strings
// and comments are copied verbatim. Nested rules are handled because any text
// ending in "{" is treated as a prelude.
func Rewrite(css string, namer func(local string) string) (string, map[string]string) {
	classes := map[string]string{}

	var out, chunk strings.Builder
	flush := func(prelude bool) {
		s := chunk.String()
		chunk.Reset()
		if prelude && !strings.HasPrefix(strings.TrimSpace(s), "@") {
			s = renameSelectors(s, namer, classes)
		}
		out.WriteString(s)
	}

	for i := 0; i < len(css); i++ {
		c := css[i]
		switch {
		case c == '/' && i+1 < len(css) && css[i+1] == '*':
			end := strings.Index(css[i+2:], "*/")
			if end < 0 {
				end = len(css)
			} else {
				end += i + 4
			}
			chunk.WriteString(css[i:end])
			i = end - 1
		case c == '"' || c == '\'':
			end := closingQuote(css, i)
			chunk.WriteString(css[i:end])
			i = end - 1
		case c == '{':
			flush(true)
			out.WriteByte(c)
		case c == ';' || c == '}':
			flush(false)
			out.WriteByte(c)
		default:
			chunk.WriteByte(c)
		}
	}
	flush(false)

	return out.String(), classes
}

const globalPrefix = ":global("

// renameSelectors rewrites class selectors outside of quoted attribute values
// and comments. Selectors wrapped in :global(...) keep their names and lose
// the wrapper.
func renameSelectors(prelude string, namer func(string) string, classes map[string]string) string {
	var out strings.Builder
	last := 0
	for i := 0; i < len(prelude); i++ {
		var end int
		switch {
		case prelude[i] == '"' || prelude[i] == '\'':
			end = closingQuote(prelude, i)
			out.WriteString(renameSegment(prelude[last:i], namer, classes))
			out.WriteString(prelude[i:end])
		case strings.HasPrefix(prelude[i:], "/*"):
			end = len(prelude)
			if j := strings.Index(prelude[i+2:], "*/"); j >= 0 {
				end = i + 2 + j + 2
			}
			out.WriteString(renameSegment(prelude[last:i], namer, classes))
			out.WriteString(prelude[i:end])
		case strings.HasPrefix(prelude[i:], globalPrefix):
			end = len(prelude)
			inner := prelude[i+len(globalPrefix):]
			if j := strings.IndexByte(inner, ')'); j >= 0 {
				end = i + len(globalPrefix) + j + 1
				inner = inner[:j]
			}
			out.WriteString(renameSegment(prelude[last:i], namer, classes))
			out.WriteString(inner)
		default:
			continue
		}
		last = end
		i = end - 1
	}
	out.WriteString(renameSegment(prelude[last:], namer, classes))
	return out.String()
}

func renameSegment(s string, namer func(string) string, classes map[string]string) string {
	return classSelector.ReplaceAllStringFunc(s, func(m string) string {
		local := m[1:]
		scoped, ok := classes[local]
		if !ok {
			scoped = namer(local)
			classes[local] = scoped
		}
		return "." + scoped
	})
}

// closingQuote returns the index just past the string starting at start.
func closingQuote(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		}
	}
	return len(s)
}
