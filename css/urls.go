package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// URLRef is a url() reference found in stylesheet text.
type URLRef struct {
	URL   string // reference without url() wrapper and quotes
	Quote byte   // quote character used in source, 0 if unquoted
	Start int    // byte offset of "url(" in source text
	End   int    // byte offset just past closing parenthesis
}

// Replace returns url() token pointing to the new location, keeping original
// quoting style.
func (r URLRef) Replace(url string) string {
	if r.Quote == 0 {
		return "url(" + url + ")"
	}
	q := string(r.Quote)
	return "url(" + q + url + q + ")"
}

// ScanURLs returns all well formed url() references in order of appearance.
// Tokens produced by the lexer cover the input completely, so offsets are
// accumulated from token lengths.
func ScanURLs(text string) []URLRef {
	l := css.NewLexer(parse.NewInput(strings.NewReader(text)))

	var (
		refs []URLRef
		pos  int
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			return refs
		}
		if tt == css.URLToken {
			if ref, ok := parseURLToken(string(data)); ok {
				ref.Start, ref.End = pos, pos+len(data)
				refs = append(refs, ref)
			}
		}
		pos += len(data)
	}
}

// parseURLToken handles: url(path), url("path"), url('path') with optional
// whitespace inside parentheses.
func parseURLToken(s string) (URLRef, bool) {
	if len(s) < 5 || !strings.EqualFold(s[:4], "url(") || s[len(s)-1] != ')' {
		return URLRef{}, false
	}
	s = strings.TrimSpace(s[4 : len(s)-1])

	ref := URLRef{URL: s}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		ref.Quote = s[0]
		ref.URL = s[1 : len(s)-1]
	}
	return ref, ref.URL != ""
}

// IsRelativeURL reports whether reference points to a file relative to the
// stylesheet location ("./" or "../" prefixed).
func IsRelativeURL(u string) bool {
	return strings.HasPrefix(u, "./") || strings.HasPrefix(u, "../")
}
