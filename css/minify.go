package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type token struct {
	tt   css.TokenType
	data string
	soft bool // whitespace standing in for a removed comment
}

// Minify removes comments and redundant whitespace from stylesheet text.
// Strings, url() tokens and calc() expressions are kept intact, so result is
// always equivalent to the input. Minify is idempotent.
func Minify(text string) string {
	toks := tokenize(text)
	spans := calcSpans(toks)

	var (
		b     strings.Builder
		depth int
	)
	b.Grow(len(text))

	for i := 0; i < len(toks); i++ {
		t := toks[i]

		if end, ok := spans[i]; ok {
			// calc() is copied as is, operators inside must keep their spacing
			for k := i; k <= end; k++ {
				if ct := toks[k]; ct.soft && (k == end || !fuses(toks[k-1], toks[k+1])) {
					continue
				}
				b.WriteString(toks[k].data)
			}
			i = end
			continue
		}

		switch t.tt {
		case css.WhitespaceToken:
			if i == 0 || i == len(toks)-1 {
				continue
			}
			if t.soft && !fuses(toks[i-1], toks[i+1]) {
				continue
			}
			if tightAfter(toks[i-1]) || tightBefore(toks[i+1]) {
				continue
			}
			if toks[i+1].tt == css.ColonToken && isPropertyName(toks, i-1, depth) {
				continue
			}
			b.WriteByte(' ')
			continue
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			if depth > 0 {
				depth--
			}
		}
		b.WriteString(t.data)
	}
	return strings.TrimSpace(b.String())
}

// tokenize splits text into tokens. Whitespace runs are folded into a single
// space token, comments are replaced with soft space tokens so the
// neighbours they separated are not glued together.
func tokenize(text string) []token {
	l := css.NewLexer(parse.NewInput(strings.NewReader(text)))

	toks := make([]token, 0, len(text)/4)
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			// io.EOF is the only possible error for in-memory input
			return toks
		case css.CommentToken, css.WhitespaceToken:
			soft := tt == css.CommentToken
			if n := len(toks); n > 0 && toks[n-1].tt == css.WhitespaceToken {
				toks[n-1].soft = toks[n-1].soft && soft
				continue
			}
			toks = append(toks, token{tt: css.WhitespaceToken, data: " ", soft: soft})
		default:
			toks = append(toks, token{tt: tt, data: string(data)})
		}
	}
}

// calcSpans maps index of every top level calc( function token to the index of
// its closing parenthesis (or last token when expression is not terminated).
func calcSpans(toks []token) map[int]int {
	spans := make(map[int]int)
	for i := 0; i < len(toks); i++ {
		if toks[i].tt != css.FunctionToken || !isCalc(toks[i].data) {
			continue
		}
		end, level := len(toks)-1, 0
	scan:
		for j := i; j < len(toks); j++ {
			switch toks[j].tt {
			case css.FunctionToken, css.LeftParenthesisToken:
				level++
			case css.RightParenthesisToken:
				level--
				if level == 0 {
					end = j
					break scan
				}
			}
		}
		spans[i] = end
		i = end
	}
	return spans
}

func isCalc(fn string) bool {
	fn = strings.ToLower(fn)
	return fn == "calc(" || strings.HasSuffix(fn, "-calc(")
}

// fuses reports whether two tokens written next to each other would be read
// back as a different token sequence.
func fuses(a, b token) bool {
	word := func(t token) bool {
		switch t.tt {
		case css.IdentToken, css.NumberToken, css.DimensionToken, css.PercentageToken,
			css.HashToken, css.CustomPropertyNameToken, css.AtKeywordToken:
			return true
		}
		return false
	}
	switch {
	case word(a) && (word(b) || b.tt == css.FunctionToken || b.tt == css.URLToken):
		return true
	case a.tt == css.IdentToken && b.tt == css.LeftParenthesisToken:
		return true
	case a.tt == css.DelimToken && (a.data == "+" || a.data == "-" || a.data == "."):
		// sign or dot followed by number or name starts a new token
		return word(b) || b.tt == css.FunctionToken
	case b.tt == css.DelimToken && (b.data == "+" || b.data == "-" || b.data == "%"):
		return word(a)
	}
	return false
}

// tightAfter reports whether whitespace following the token is insignificant.
func tightAfter(t token) bool {
	return t.tt == css.ColonToken || isPunctuation(t)
}

// tightBefore reports whether whitespace preceding the token is insignificant.
// Colon is handled separately: "a :hover" and "a:hover" are different selectors.
func tightBefore(t token) bool {
	return isPunctuation(t)
}

func isPunctuation(t token) bool {
	switch t.tt {
	case css.LeftBraceToken, css.RightBraceToken, css.SemicolonToken, css.CommaToken,
		css.IncludeMatchToken, css.DashMatchToken, css.PrefixMatchToken,
		css.SuffixMatchToken, css.SubstringMatchToken:
		return true
	case css.DelimToken:
		switch t.data {
		case ">", "~", "!", "=":
			return true
		}
	}
	return false
}

// isPropertyName reports whether token at i is a declaration property name:
// identifier inside a block which starts a declaration. Nested rules look the
// same up to the colon ("div :hover {}"), they are told apart by a block
// opening before the declaration ends.
func isPropertyName(toks []token, i, depth int) bool {
	if depth == 0 || i < 0 {
		return false
	}
	if tt := toks[i].tt; tt != css.IdentToken && tt != css.CustomPropertyNameToken {
		return false
	}
	j := i - 1
	if j >= 0 && toks[j].tt == css.WhitespaceToken {
		j--
	}
	if j < 0 || (toks[j].tt != css.LeftBraceToken && toks[j].tt != css.SemicolonToken) {
		return false
	}

	level := 0
	for _, t := range toks[i+1:] {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			level++
		case css.RightParenthesisToken, css.RightBracketToken:
			level--
		case css.LeftBraceToken:
			if level <= 0 {
				return false
			}
		case css.SemicolonToken, css.RightBraceToken:
			if level <= 0 {
				return true
			}
		}
	}
	return true
}
