package host

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"importcss/css"
	"importcss/plugin"
)

// Builder runs a single build through plugin session.
type Builder struct {
	session     *plugin.Session
	out         plugin.OutputOptions
	concurrency int
	fs          FS
	parser      *css.Parser
	log         *zap.Logger
}

// NewBuilder creates builder. Concurrency limits parallel stylesheet
// transforms, number of CPUs when not positive.
func NewBuilder(session *plugin.Session, out plugin.OutputOptions, concurrency int, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Builder{
		session:     session,
		out:         out,
		concurrency: concurrency,
		parser:      css.NewParser(log),
		log:         log.Named("host"),
	}
}

// Build processes module graph reachable from entries (absolute paths of
// script modules) and returns output in memory. Nothing is written on
// failure.
func (b *Builder) Build(ctx context.Context, entries []string) (*Output, *Graph, error) {
	if len(entries) == 0 {
		return nil, nil, fmt.Errorf("no entry modules")
	}
	namer, err := NewNamer(b.out.AssetFileNames)
	if err != nil {
		return nil, nil, err
	}

	graph, err := b.discover(ctx, entries)
	if err != nil {
		return nil, nil, err
	}
	if err := b.transform(ctx, graph); err != nil {
		return nil, nil, err
	}

	bundle := b.chunks(graph, entries)
	output := NewOutput(namer)
	if err := b.session.GenerateBundle(ctx, b.out, bundle, graph, output); err != nil {
		return nil, nil, err
	}
	if err := output.Err(); err != nil {
		return nil, nil, err
	}
	// chunk code is final only after plugin had a chance to restore imports
	for _, c := range bundle.Chunks {
		output.Add(c.FileName, []byte(c.Code))
	}
	b.log.Debug("Build finished", zap.Int("modules", len(graph.order)), zap.Int("chunks", len(bundle.Chunks)))
	return output, graph, nil
}

// discover walks module graph breadth first from entries.
func (b *Builder) discover(ctx context.Context, entries []string) (*Graph, error) {
	g := newGraph()
	queue := slices.Clone(entries)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		if g.Module(id) != nil {
			continue
		}

		m, err := b.load(id)
		if err != nil {
			return nil, err
		}
		g.add(m)
		for _, e := range m.Imports {
			if e.ID != "" && g.Module(e.ID) == nil {
				queue = append(queue, e.ID)
			}
		}
	}
	return g, nil
}

func (b *Builder) load(id string) (*Module, error) {
	code, ok, err := b.session.Load(id, b.fs)
	if err != nil {
		return nil, err
	}
	if ok {
		for _, imp := range b.parser.Imports(code, id) {
			if css.IsRelativeURL(imp.URL) {
				b.log.Warn("Stylesheet @import is not bundled, rule is kept as is", zap.String("id", id), zap.String("url", imp.URL))
			}
		}
		return &Module{ID: id, Style: true, Source: code}, nil
	}
	if !isScript(id) {
		b.log.Debug("Not a script or handled stylesheet, leaving import as is", zap.String("id", id))
		return &Module{ID: id, External: true}, nil
	}

	src, err := b.fs.ReadSource(id)
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", id, err)
	}
	m := &Module{ID: id, Source: src}
	for _, d := range ScanImports(src) {
		e := Edge{Decl: d}
		target, handled, err := b.session.ResolveID(d.Source, id, b.fs)
		switch {
		case err != nil:
			return nil, err
		case handled:
			e.ID = target
		case isRelative(d.Source):
			if e.ID, err = b.fs.Resolve(d.Source, id); err != nil {
				return nil, err
			}
		}
		m.Imports = append(m.Imports, e)
	}
	return m, nil
}

func (b *Builder) transform(ctx context.Context, g *Graph) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.concurrency)

	for _, id := range g.order {
		m := g.modules[id]
		if !m.Style {
			continue
		}
		attrs := g.Attrs(id)
		eg.Go(func() error {
			res, err := b.session.Transform(ctx, m.Source, m.ID, attrs)
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("stylesheet %s was not transformed", m.ID)
			}
			m.Code = res.Code
			return nil
		})
	}
	return eg.Wait()
}

// chunks renders script modules one to one. Stylesheets bound by any importer
// become their own chunks, stylesheets imported for side effect only are
// removed from importer code and left to plugin.
func (b *Builder) chunks(g *Graph, entries []string) *plugin.Bundle {
	root := b.out.PreserveModulesRoot
	if root == "" {
		root = filepath.Dir(entries[0])
	}
	isEntry := make(map[string]bool, len(entries))
	for _, e := range entries {
		isEntry[e] = true
	}

	bundle := &plugin.Bundle{}
	for _, id := range g.order {
		m := g.modules[id]
		switch {
		case m.External:
			continue
		case m.Style:
			if !g.Bound(id) {
				continue
			}
			bundle.Chunks = append(bundle.Chunks, &plugin.Chunk{
				FileName:       plugin.MirrorPath(root, id) + ".js",
				FacadeModuleID: id,
				Modules:        map[string]plugin.RenderedModule{id: {RenderedLength: len(m.Code)}},
				Code:           m.Code,
			})
			continue
		}

		c := &plugin.Chunk{
			FileName:       plugin.MirrorPath(root, id),
			IsEntry:        isEntry[id],
			FacadeModuleID: id,
			Modules:        map[string]plugin.RenderedModule{},
		}
		if id == entries[0] && b.out.File != "" {
			c.FileName = filepath.ToSlash(filepath.Base(b.out.File))
		}
		c.Code = b.render(g, m, c)
		c.Modules[id] = plugin.RenderedModule{RenderedLength: len(c.Code)}
		bundle.Chunks = append(bundle.Chunks, c)
	}
	return bundle
}

// render rewrites stylesheet imports of script module. Edits are applied
// back to front so offsets stay valid.
func (b *Builder) render(g *Graph, m *Module, c *plugin.Chunk) string {
	code := m.Source
	for i := len(m.Imports) - 1; i >= 0; i-- {
		e := m.Imports[i]
		target := g.Module(e.ID)
		if target == nil || !target.Style {
			c.Imports = append(c.Imports, e.Decl.Source)
			continue
		}
		if g.Bound(e.ID) {
			spec := plugin.JSString(e.Decl.Source + ".js")
			code = code[:e.Decl.SpecStart] + spec + code[e.Decl.SpecEnd:]
			c.Imports = append(c.Imports, e.Decl.Source+".js")
			continue
		}
		code = code[:e.Decl.Start] + code[e.Decl.End:]
		c.Modules[e.ID] = plugin.RenderedModule{RemovedExports: []string{"default"}}
	}
	slices.Reverse(c.Imports)
	return strings.TrimLeft(code, "\n")
}
