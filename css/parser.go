package css

import (
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Import is @import rule of a stylesheet.
type Import struct {
	URL   string
	Media string // media query list or layer/supports conditions following URL
}

// Parser extracts stylesheet structure using CSS grammar parser.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Imports returns @import rules in source order. The optional source
// parameter identifies what's being parsed (for debug logging).
func (p *Parser) Imports(text string, source ...string) []Import {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Scanning imports", zap.String("source", source[0]), zap.Int("bytes", len(text)))
	}

	parser := css.NewParser(parse.NewInput(strings.NewReader(text)), false)

	var imports []Import
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return imports
		case css.AtRuleGrammar:
			if !strings.EqualFold(string(data), "@import") {
				continue
			}
			if imp, ok := importFromTokens(parser.Values()); ok {
				p.log.Debug("Found @import", zap.String("url", imp.URL), zap.String("media", imp.Media))
				imports = append(imports, imp)
			}
		}
	}
}

// importFromTokens handles: @import "url"; @import url("url"); @import url(url);
// followed by optional conditions.
func importFromTokens(tokens []css.Token) (Import, bool) {
	var (
		imp   Import
		found bool
		rest  strings.Builder
	)
	for _, t := range tokens {
		if found {
			rest.Write(t.Data)
			continue
		}
		switch t.TokenType {
		case css.StringToken:
			imp.URL, found = unquote(string(t.Data)), true
		case css.URLToken:
			if ref, ok := parseURLToken(string(t.Data)); ok {
				imp.URL, found = ref.URL, true
			}
		}
	}
	imp.Media = strings.Join(strings.Fields(rest.String()), " ")
	return imp, found && imp.URL != ""
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
