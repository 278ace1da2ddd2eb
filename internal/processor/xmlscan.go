package processor

import (
	"html"
	"strings"
)

// tag is one markup token of a WordprocessingML part.
type tag struct {
	start, end  int
	name        string
	closing     bool
	selfClosing bool
}

// nextTag finds the first tag at or after from. Word escapes '>' inside
// attribute values, so the first '>' closes the tag.
func nextTag(s string, from int) (tag, bool) {
	i := strings.IndexByte(s[from:], '<')
	if i < 0 {
		return tag{}, false
	}
	start := from + i
	j := strings.IndexByte(s[start:], '>')
	if j < 0 {
		return tag{}, false
	}
	t := tag{start: start, end: start + j + 1}

	body := s[start+1 : t.end-1]
	if strings.HasPrefix(body, "/") {
		t.closing = true
		body = body[1:]
	}
	if strings.HasSuffix(body, "/") {
		t.selfClosing = true
		body = body[:len(body)-1]
	}
	if k := strings.IndexAny(body, " \t\r\n"); k >= 0 {
		body = body[:k]
	}
	t.name = body
	return t, true
}

// elementEnd returns the offset just past the element opened by open,
// counting nested elements of the same name. nested reports whether such
// nesting occurred.
func elementEnd(s string, open tag) (end int, nested, ok bool) {
	if open.selfClosing {
		return open.end, false, true
	}
	depth := 1
	pos := open.end
	for {
		t, found := nextTag(s, pos)
		if !found {
			return 0, false, false
		}
		pos = t.end
		if t.name != open.name || t.selfClosing {
			continue
		}
		if t.closing {
			depth--
			if depth == 0 {
				return t.end, nested, true
			}
			continue
		}
		depth++
		nested = true
	}
}

// runText concatenates the w:t contents of a run.
func runText(run string) string {
	var sb strings.Builder
	pos := 0
	for {
		t, ok := nextTag(run, pos)
		if !ok {
			break
		}
		pos = t.end
		if t.name != "w:t" || t.closing || t.selfClosing {
			continue
		}
		next := strings.IndexByte(run[pos:], '<')
		if next < 0 {
			break
		}
		sb.WriteString(html.UnescapeString(run[pos : pos+next]))
		pos += next
	}
	return sb.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
