package processor

import (
	"html"
	"strings"
)

// maxActionLength bounds how far a "{{" may be from its "}}" before the
// braces are treated as literal text.
const maxActionLength = 4096

// healActions rejoins template actions that Word split over several runs,
// e.g. "{{.nom_" in one run and "client}}" in the next. The action text is
// moved to the position of its opening brace and the markup it crossed is
// kept in order after it, so the element structure stays intact.
// Entities inside actions are decoded so string literals reach the
// template parser verbatim.
func healActions(xml string) string {
	var out strings.Builder
	out.Grow(len(xml))

	i := 0
	for i < len(xml) {
		c := xml[i]
		if c == '<' {
			end := strings.IndexByte(xml[i:], '>')
			if end < 0 {
				out.WriteString(xml[i:])
				break
			}
			out.WriteString(xml[i : i+end+1])
			i += end + 1
			continue
		}

		if c == '{' {
			if j, ok := skipTags(xml, i+1); ok && xml[j] == '{' {
				if action, markup, next, ok := collectAction(xml, j+1); ok {
					out.WriteString("{{")
					out.WriteString(html.UnescapeString(action))
					out.WriteString("}}")
					out.WriteString(xml[i+1 : j])
					out.WriteString(markup)
					i = next
					continue
				}
			}
		}

		out.WriteByte(c)
		i++
	}
	return out.String()
}

// skipTags returns the offset of the first text byte at or after pos.
func skipTags(s string, pos int) (int, bool) {
	for pos < len(s) && s[pos] == '<' {
		end := strings.IndexByte(s[pos:], '>')
		if end < 0 {
			return 0, false
		}
		pos += end + 1
	}
	return pos, pos < len(s)
}

// collectAction reads the body of an action starting after "{{". It returns
// the action text, the markup interleaved with it and the offset after "}}".
func collectAction(s string, pos int) (action, markup string, next int, ok bool) {
	var text, tags strings.Builder
	for pos < len(s) && text.Len() <= maxActionLength {
		c := s[pos]
		if c == '<' {
			end := strings.IndexByte(s[pos:], '>')
			if end < 0 {
				return "", "", 0, false
			}
			tags.WriteString(s[pos : pos+end+1])
			pos += end + 1
			continue
		}
		if c == '}' {
			if j, found := skipTags(s, pos+1); found && s[j] == '}' {
				tags.WriteString(s[pos+1 : j])
				return text.String(), tags.String(), j + 1, true
			}
		}
		text.WriteByte(c)
		pos++
	}
	return "", "", 0, false
}
