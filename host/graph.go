// Package host is a small filesystem build host driving the plugin: it walks
// ES module graph from entry scripts, transforms stylesheets through plugin
// session, writes script modules one to one mirroring source tree and lets
// plugin emit stylesheet artifacts.
package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"importcss/order"
)

var (
	ErrUnresolved = errors.New("unresolved import")
	ErrNotUTF8    = errors.New("source is not valid UTF-8")
)

// Edge is an import declaration of a script module with resolved target.
type Edge struct {
	Decl ImportDecl
	ID   string // empty for bare specifiers which are left to runtime
}

// Module is a node of module graph.
type Module struct {
	ID       string
	Style    bool // handled by plugin
	External bool // neither script nor stylesheet, import left as is
	Source   string
	Code     string // generated module code of stylesheet
	Imports  []Edge
}

// Graph is module graph in discovery order. Implements
// order.ModuleInfoProvider.
type Graph struct {
	modules map[string]*Module
	order   []string
}

func newGraph() *Graph {
	return &Graph{modules: make(map[string]*Module)}
}

func (g *Graph) add(m *Module) {
	g.modules[m.ID] = m
	g.order = append(g.order, m.ID)
}

// Module returns module by id, nil if unknown.
func (g *Graph) Module(id string) *Module {
	return g.modules[id]
}

// IDs returns module ids in discovery order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// ModuleInfo implements order.ModuleInfoProvider. Imported ids follow source
// order of import statements.
func (g *Graph) ModuleInfo(id string) (*order.ModuleInfo, bool) {
	m, ok := g.modules[id]
	if !ok || m.External {
		return nil, false
	}
	info := &order.ModuleInfo{ID: id}
	for _, e := range m.Imports {
		if e.ID != "" {
			info.ImportedIDs = append(info.ImportedIDs, e.ID)
		}
	}
	return info, true
}

// Bound reports whether any importer binds names of module.
func (g *Graph) Bound(id string) bool {
	for _, m := range g.modules {
		for _, e := range m.Imports {
			if e.ID == id && e.Decl.Bound {
				return true
			}
		}
	}
	return false
}

// Attrs returns import attributes of the first importer (in discovery order)
// which specified any.
func (g *Graph) Attrs(id string) map[string]string {
	for _, mid := range g.order {
		for _, e := range g.modules[mid].Imports {
			if e.ID == id && len(e.Decl.Attrs) > 0 {
				return e.Decl.Attrs
			}
		}
	}
	return nil
}

// FS reads sources from disk and resolves relative specifiers.
type FS struct{}

// ReadSource implements plugin.SourceReader.
func (FS) ReadSource(id string) (string, error) {
	data, err := os.ReadFile(id)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", id, ErrNotUTF8)
	}
	return string(data), nil
}

// Resolve implements plugin.Resolver. Extension-less specifiers are tried
// with script extensions and as directory index.
func (FS) Resolve(source, importer string) (string, error) {
	if !isRelative(source) {
		return "", fmt.Errorf("%w: %q from %s is not relative", ErrUnresolved, source, importer)
	}
	base := filepath.Join(filepath.Dir(importer), filepath.FromSlash(source))
	for _, candidate := range []string{base, base + ".js", base + ".mjs", filepath.Join(base, "index.js")} {
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return filepath.Abs(candidate)
		}
	}
	return "", fmt.Errorf("%w: %q from %s", ErrUnresolved, source, importer)
}

func isRelative(source string) bool {
	return strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../")
}

func isScript(id string) bool {
	switch strings.ToLower(filepath.Ext(id)) {
	case ".js", ".mjs":
		return true
	}
	return false
}
