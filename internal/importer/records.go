package importer

import "strings"

// atMask stands in for '@' inside field values while a record is parsed.
// The parser rejects a bare '@' in a braced value.
const atMask = "\uE000"

// record is one top-level @kind{...} or @kind(...) block of a document.
type record struct {
	kind   string // lowercased, e.g. "article", "string", "comment"
	body   string // text between the delimiters
	line   int    // line of the '@'
	closed bool
}

// key returns the citation key of an entry record, or "" if it has none.
func (r record) key() string {
	k := r.body
	if i := strings.IndexByte(k, ','); i >= 0 {
		k = k[:i]
	}
	k = strings.TrimSpace(k)
	if strings.ContainsAny(k, "={}\"") {
		return ""
	}
	return k
}

// splitRecords cuts doc into top-level records. Text between records is
// ignored, as BibTeX does. A record whose closing delimiter is missing is
// returned unclosed, and scanning resumes at the next line starting with '@'.
func splitRecords(doc string) []record {
	var recs []record
	i := 0
	for i < len(doc) {
		at := strings.IndexByte(doc[i:], '@')
		if at < 0 {
			break
		}
		start := i + at

		k := start + 1
		for k < len(doc) && isKindByte(doc[k]) {
			k++
		}
		kind := strings.ToLower(doc[start+1 : k])
		for k < len(doc) && isSpaceByte(doc[k]) {
			k++
		}
		if kind == "" || k >= len(doc) || (doc[k] != '{' && doc[k] != '(') {
			i = start + 1
			continue
		}

		line := 1 + strings.Count(doc[:start], "\n")
		end, ok := matchClose(doc, k)
		if ok {
			recs = append(recs, record{kind: kind, body: doc[k+1 : end], line: line, closed: true})
			i = end + 1
			continue
		}

		next := strings.Index(doc[k+1:], "\n@")
		if next < 0 {
			recs = append(recs, record{kind: kind, body: doc[k+1:], line: line})
			break
		}
		recs = append(recs, record{kind: kind, body: doc[k+1 : k+1+next], line: line})
		i = k + 1 + next + 1
	}
	return recs
}

// matchClose returns the index of the delimiter closing the one at open.
func matchClose(doc string, open int) (int, bool) {
	depth := 0
	inQuote := false
	for j := open + 1; j < len(doc); j++ {
		switch doc[j] {
		case '{':
			depth++
		case '}':
			if depth == 0 {
				if doc[open] == '{' {
					return j, true
				}
				return 0, false
			}
			depth--
		case '"':
			if depth == 0 {
				inQuote = !inQuote
			}
		case ')':
			if doc[open] == '(' && depth == 0 && !inQuote {
				return j, true
			}
		}
	}
	return 0, false
}

// rewrite prepares a record body for the parser. Quoted values become braced
// values with their inner braces kept, '@' inside values is masked, and macro
// references are lowercased. It returns the macros referenced, in order of
// first use.
func rewrite(body string) (string, []string) {
	rs := []rune(body)
	var b strings.Builder
	var macros []string
	seen := make(map[string]bool)
	expectValue := false

	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case c == '{':
			end := closeBrace(rs, i)
			b.WriteByte('{')
			b.WriteString(mask(string(rs[i+1 : end])))
			b.WriteByte('}')
			i = end + 1
			expectValue = false
		case c == '"' && expectValue:
			end := closeQuote(rs, i)
			b.WriteByte('{')
			b.WriteString(mask(string(rs[i+1 : end])))
			b.WriteByte('}')
			i = end + 1
			expectValue = false
		case c == '=' || c == '#':
			b.WriteRune(c)
			i++
			expectValue = true
		case c == ',':
			b.WriteRune(c)
			i++
			expectValue = false
		case expectValue && isMacroRune(c):
			j := i
			for j < len(rs) && isMacroRune(rs[j]) {
				j++
			}
			name := string(rs[i:j])
			if !isNumber(name) {
				name = strings.ToLower(name)
				if !seen[name] {
					seen[name] = true
					macros = append(macros, name)
				}
			}
			b.WriteString(name)
			i = j
			expectValue = false
		default:
			b.WriteRune(c)
			i++
		}
	}

	return b.String(), macros
}

// closeBrace returns the index of the brace closing rs[open], or len(rs).
func closeBrace(rs []rune, open int) int {
	depth := 0
	for j := open; j < len(rs); j++ {
		switch rs[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(rs)
}

// closeQuote returns the index of the quote closing rs[open], skipping quotes
// nested in braces, or len(rs).
func closeQuote(rs []rune, open int) int {
	depth := 0
	for j := open + 1; j < len(rs); j++ {
		switch rs[j] {
		case '{':
			depth++
		case '}':
			depth--
		case '"':
			if depth == 0 {
				return j
			}
		}
	}
	return len(rs)
}

func mask(s string) string   { return strings.ReplaceAll(s, "@", atMask) }
func unmask(s string) string { return strings.ReplaceAll(s, atMask, "@") }

func isKindByte(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isMacroRune matches the characters the parser accepts in a bare name.
// The two must agree: a name cut short here would reach the parser
// undeclared.
func isMacroRune(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') ||
		strings.ContainsRune(bareAccents, r) || strings.ContainsRune("-_:./+", r)
}

const bareAccents = "äöüßéêçñÁÉÍÓÚáéíóúàèìòùâêîôûãõñÄÖÜ"

func isNumber(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
