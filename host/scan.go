package host

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// ImportDecl is a static import or re-export statement of a script module.
// Offsets are byte positions in module source.
type ImportDecl struct {
	Source string            // specifier without quotes
	Bound  bool              // statement binds names, module is consumed as value
	Attrs  map[string]string // import attributes, `with { type: "css" }`
	Start  int               // start of statement
	End    int               // end of statement including semicolon
	// specifier string token, extended over attributes clause if present
	SpecStart, SpecEnd int
}

type jsToken struct {
	tt   js.TokenType
	data string
	pos  int
}

// beforeRegExp lists tokens after which "/" starts a regular expression
// rather than division.
var beforeRegExp = map[string]bool{
	"return": true, "typeof": true, "case": true, "do": true, "else": true,
	"in": true, "instanceof": true, "new": true, "delete": true, "void": true,
	"throw": true, "yield": true, "await": true,
}

// tokens returns significant tokens, dropping whitespace and comments.
func tokens(code string) []jsToken {
	l := js.NewLexer(parse.NewInput(strings.NewReader(code)))

	var (
		toks []jsToken
		pos  int
	)
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken {
			return toks
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && regExpAllowed(toks) {
			if rt, rdata := l.RegExp(); rt != js.ErrorToken {
				tt, data = rt, rdata
			}
		}
		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
		default:
			toks = append(toks, jsToken{tt: tt, data: string(data), pos: pos})
		}
		pos += len(data)
	}
}

func regExpAllowed(toks []jsToken) bool {
	if len(toks) == 0 {
		return true
	}
	prev := toks[len(toks)-1].data
	if beforeRegExp[prev] {
		return true
	}
	return strings.ContainsAny(prev[len(prev)-1:], "(,=:[!&|?{};+-*%<>~^")
}

// ScanImports returns static import declarations and re-exports in source
// order. Dynamic imports and import.meta are ignored.
func ScanImports(code string) []ImportDecl {
	toks := tokens(code)

	var decls []ImportDecl
	for i := 0; i < len(toks); i++ {
		if i > 0 && toks[i-1].data == "." {
			// member access, obj.import
			continue
		}
		var (
			d    ImportDecl
			next int
			ok   bool
		)
		switch toks[i].data {
		case "import":
			d, next, ok = importDecl(toks, i)
		case "export":
			d, next, ok = reexportDecl(toks, i)
		}
		if ok {
			decls = append(decls, d)
			i = next - 1
		}
	}
	return decls
}

func importDecl(toks []jsToken, i int) (ImportDecl, int, bool) {
	j := i + 1
	if j >= len(toks) || toks[j].data == "(" || toks[j].data == "." {
		return ImportDecl{}, 0, false
	}
	if toks[j].tt == js.StringToken {
		return finishDecl(toks, i, j, false)
	}

	depth := 0
	for k := j; k < len(toks); k++ {
		switch toks[k].data {
		case "{":
			depth++
		case "}":
			depth--
		case ";", "import", "export":
			if depth == 0 {
				return ImportDecl{}, 0, false
			}
		case "from":
			if depth == 0 && k+1 < len(toks) && toks[k+1].tt == js.StringToken {
				return finishDecl(toks, i, k+1, true)
			}
		}
	}
	return ImportDecl{}, 0, false
}

// reexportDecl handles `export * from`, `export * as ns from` and
// `export { ... } from`.
func reexportDecl(toks []jsToken, i int) (ImportDecl, int, bool) {
	k := i + 1
	if k >= len(toks) {
		return ImportDecl{}, 0, false
	}
	switch toks[k].data {
	case "*":
		k++
		if k < len(toks) && toks[k].data == "as" {
			k += 2
		}
	case "{":
		depth := 0
		for ; k < len(toks); k++ {
			if toks[k].data == "{" {
				depth++
			} else if toks[k].data == "}" {
				if depth--; depth == 0 {
					break
				}
			}
		}
		k++
	default:
		return ImportDecl{}, 0, false
	}
	if k+1 < len(toks) && toks[k].data == "from" && toks[k+1].tt == js.StringToken {
		return finishDecl(toks, i, k+1, true)
	}
	return ImportDecl{}, 0, false
}

// finishDecl reads optional attributes clause and semicolon following
// specifier at index s.
func finishDecl(toks []jsToken, i, s int, bound bool) (ImportDecl, int, bool) {
	spec := toks[s]
	d := ImportDecl{
		Source:    unquote(spec.data),
		Bound:     bound,
		Start:     toks[i].pos,
		SpecStart: spec.pos,
		SpecEnd:   spec.pos + len(spec.data),
	}

	k := s + 1
	if k+1 < len(toks) && (toks[k].data == "with" || toks[k].data == "assert") && toks[k+1].data == "{" {
		attrs, end, ok := attributes(toks, k+2)
		if ok {
			d.Attrs = attrs
			d.SpecEnd = toks[end].pos + len(toks[end].data)
			k = end + 1
		}
	}
	d.End = d.SpecEnd
	if k < len(toks) && toks[k].data == ";" {
		d.End = toks[k].pos + 1
		k++
	}
	return d, k, true
}

// attributes parses `key: "value", ...}` returning index of closing brace.
func attributes(toks []jsToken, k int) (map[string]string, int, bool) {
	attrs := make(map[string]string)
	for k < len(toks) {
		if toks[k].data == "}" {
			return attrs, k, true
		}
		if k+2 >= len(toks) || toks[k+1].data != ":" || toks[k+2].tt != js.StringToken {
			return nil, 0, false
		}
		attrs[unquote(toks[k].data)] = unquote(toks[k+2].data)
		k += 3
		if k < len(toks) && toks[k].data == "," {
			k++
		}
	}
	return nil, 0, false
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
