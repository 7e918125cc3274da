package plugin

import (
	"context"
	"path"
	"path/filepath"
	"strings"
)

// DefaultInclude is used when no include patterns are configured.
const DefaultInclude = "**/*.css"

// Transformer pre-processes raw stylesheet text before minification. It may
// block (run external tools, etc.) and should honor context cancellation.
type Transformer interface {
	Transform(ctx context.Context, id, code string) (string, error)
}

// TransformerFunc adapts ordinary function to Transformer.
type TransformerFunc func(ctx context.Context, id, code string) (string, error)

func (f TransformerFunc) Transform(ctx context.Context, id, code string) (string, error) {
	return f(ctx, id, code)
}

// Identity returns code unchanged.
var Identity = TransformerFunc(func(_ context.Context, _, code string) (string, error) {
	return code, nil
})

// Options configure plugin behavior.
type Options struct {
	Include            []string    // glob patterns of stylesheets to handle, DefaultInclude if empty
	Exclude            []string    // glob patterns to skip
	BaseDir            string      // base for relative patterns, current directory if empty
	Output             string      // explicit name of emitted stylesheet
	Transform          Transformer // applied to raw text, Identity if nil
	Minify             bool
	Modules            bool  // export constructed stylesheet object
	Inject             bool  // inject style element at runtime
	AlwaysOutput       bool  // emit stylesheet even when empty
	PreserveImports    *bool // re-declare side effect imports in preserve modules mode, true if nil
	CopyRelativeAssets bool
}

// Bool is a helper for optional boolean options.
func Bool(v bool) *bool {
	return &v
}

// Plan is the resolved emission strategy for a single build.
type Plan struct {
	Split           bool   // one artifact per stylesheet
	FileName        string // fixed artifact path in merged mode
	Name            string // artifact name for host naming pattern when FileName is empty
	Separator       string // between merged stylesheets
	PreserveImports bool
	AlwaysOutput    bool
	RewriteAssets   bool
}

// ResolvePlan combines plugin options with host output options. Precedence:
//
//   - split output requires host preserve modules mode and no explicit output;
//   - merged artifact name: explicit output, then host asset naming pattern,
//     then output file base name, then entry chunk base name, then "bundle";
//   - preserve imports defaults to true.
func ResolvePlan(opts *Options, out OutputOptions, entryChunk string) Plan {
	p := Plan{
		Split:           out.PreserveModules && opts.Output == "",
		PreserveImports: opts.PreserveImports == nil || *opts.PreserveImports,
		AlwaysOutput:    opts.AlwaysOutput,
		RewriteAssets:   opts.CopyRelativeAssets,
		Separator:       "\n",
	}
	if opts.Minify {
		p.Separator = ""
	}
	if p.Split {
		return p
	}

	switch {
	case opts.Output != "":
		p.FileName = filepath.ToSlash(opts.Output)
		return p
	case out.File != "":
		p.Name = trimExt(filepath.Base(out.File)) + ".css"
	case entryChunk != "":
		p.Name = trimExt(path.Base(filepath.ToSlash(entryChunk))) + ".css"
	default:
		p.Name = "bundle.css"
	}
	if out.AssetFileNames == "" {
		p.FileName, p.Name = p.Name, ""
	}
	return p
}

// ResolveShape selects generated module form. Native stylesheet object wins
// over injection which wins over plain string export. Import attribute
// `with { type: "css" }` requests native object as well.
func ResolveShape(opts *Options, attrs map[string]string) OutputShape {
	switch {
	case opts.Modules || strings.EqualFold(attrs["type"], "css"):
		return OutputShapeNative
	case opts.Inject:
		return OutputShapeInject
	default:
		return OutputShapeString
	}
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
