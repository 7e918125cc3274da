package css_test

import (
	"strings"
	"testing"

	"importcss/css"
)

func TestMinify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "simple rule",
			in:   `.a { color: red; }`,
			want: `.a{color:red;}`,
		},
		{
			name: "calc keeps inner spacing",
			in:   "div {\n  top: calc(var(--x) + 10px);\n}\n",
			want: `div{top:calc(var(--x) + 10px);}`,
		},
		{
			name: "nested calc",
			in:   `a { width: calc(100% - calc(2 * 8px)); }`,
			want: `a{width:calc(100% - calc(2 * 8px));}`,
		},
		{
			name: "vendor calc",
			in:   `a { width: -webkit-calc(100%  -  8px); }`,
			want: `a{width:-webkit-calc(100% - 8px);}`,
		},
		{
			name: "comments",
			in:   "/* header */\n.a { /* inner */ color: red; } /* trailer */",
			want: `.a{color:red;}`,
		},
		{
			name: "comment inside string",
			in:   `.a::before { content: "/* not a comment */"; }`,
			want: `.a::before{content:"/* not a comment */";}`,
		},
		{
			name: "comment inside single quoted string",
			in:   `.a::before { content: '  /* x */  '; }`,
			want: `.a::before{content:'  /* x */  ';}`,
		},
		{
			name: "negative values",
			in:   `.a { box-shadow: 0px 16px 32px -10px black; margin: -10px; }`,
			want: `.a{box-shadow:0px 16px 32px -10px black;margin:-10px;}`,
		},
		{
			name: "selector list over lines",
			in:   ":is(a,\n    b,\n    c)\n  d {\n  color: red;\n}",
			want: `:is(a,b,c) d{color:red;}`,
		},
		{
			name: "combinators",
			in:   `ul > li ~ p + span { x: y; }`,
			want: `ul>li~p + span{x:y;}`,
		},
		{
			name: "important",
			in:   `a { color: red !important; top: 0 ! important; }`,
			want: `a{color:red!important;top:0!important;}`,
		},
		{
			name: "attribute selector with spaces in value",
			in:   `html[style*="--color-scheme: dark"] body { color: white; }`,
			want: `html[style*="--color-scheme: dark"] body{color:white;}`,
		},
		{
			name: "attribute operators",
			in:   `[a = "1"], [b ~= "2"], [c |= "3"], [d ^= "4"], [e $= "5"], [f *= "6"] { x: y; }`,
			want: `[a="1"],[b~="2"],[c|="3"],[d^="4"],[e$="5"],[f*="6"]{x:y;}`,
		},
		{
			name: "descendant pseudo class keeps space",
			in:   `.a :hover { color: red; }`,
			want: `.a :hover{color:red;}`,
		},
		{
			name: "space before property colon",
			in:   `.a { color : red ; background : blue }`,
			want: `.a{color:red;background:blue}`,
		},
		{
			name: "media block",
			in:   "@media (min-width: 600px) {\n  .a { color: red; }\n}\n",
			want: `@media (min-width:600px){.a{color:red;}}`,
		},
		{
			name: "url untouched",
			in:   `.a { background: url( "./bg image.jpg" ) no-repeat; }`,
			want: `.a{background:url( "./bg image.jpg" ) no-repeat;}`,
		},
		{
			name: "custom property",
			in:   `:root { --gap : 4px; }`,
			want: `:root{--gap:4px;}`,
		},
		{
			name: "comment between values",
			in:   `.a { margin: 1px/**/2px; }`,
			want: `.a{margin:1px 2px;}`,
		},
		{
			name: "comment around calc operator",
			in:   `.a { width: calc(1px/**/+/**/2px); }`,
			want: `.a{width:calc(1px + 2px);}`,
		},
		{
			name: "comment inside compound selector",
			in:   `a/* x */.b { color: red; }`,
			want: `a.b{color:red;}`,
		},
		{
			name: "comment next to punctuation",
			in:   `.a {/* x */color/* y */:/* z */red/* w */;}`,
			want: `.a{color:red;}`,
		},
		{
			name: "nested rule keeps descendant space",
			in:   `.a { div :hover { color: red; } }`,
			want: `.a{div :hover{color:red;}}`,
		},
		{
			name: "nested rule after declaration",
			in:   `.a { color: red; b :is(.x) { top: 0; } }`,
			want: `.a{color:red;b :is(.x){top:0;}}`,
		},
		{
			name: "empty",
			in:   "  \n\t ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := css.Minify(tt.in)
			if got != tt.want {
				t.Errorf("Minify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMinify_Idempotent(t *testing.T) {
	inputs := []string{
		`.a { color: red; }`,
		"div {\n  top: calc(var(--x) + 10px);\n  margin: 0 auto !important;\n}",
		`a[href $= ".pdf"] > span ~ i { content: " /* x */ "; }`,
		"@font-face {\n  font-family: 'X';\n  src: url(./x.woff2) format('woff2');\n}",
		"/* a */ p /* b */ , h1 { }",
		`.a :hover, .b::after { width: calc( 1px  +  2px ); }`,
	}
	for _, in := range inputs {
		once := css.Minify(in)
		twice := css.Minify(once)
		if once != twice {
			t.Errorf("Minify is not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestMinify_QuotedCommentsPreserved(t *testing.T) {
	literals := []string{
		`"/* keep */"`,
		`'/**/'`,
		`"a /* b */ c"`,
		`"*/ /*"`,
	}
	for _, lit := range literals {
		in := ".x { content: " + lit + "; } /* drop me */"
		got := css.Minify(in)
		if !strings.Contains(got, lit) {
			t.Errorf("Minify(%q) = %q, literal %s lost", in, got, lit)
		}
		if strings.Contains(got, "drop me") {
			t.Errorf("Minify(%q) = %q, comment was not removed", in, got)
		}
	}
}

func TestMinify_CalcSafety(t *testing.T) {
	exprs := []string{
		"calc(1px + 2px)",
		"calc(100% - 2 * var(--gap, 4px))",
		"calc((1em + 2px) / 3)",
	}
	for _, expr := range exprs {
		in := ".x {\n  width :  " + expr + " ;\n}"
		got := css.Minify(in)
		want := ".x{width:" + expr + ";}"
		if got != want {
			t.Errorf("Minify(%q) = %q, want %q", in, got, want)
		}
	}
}
