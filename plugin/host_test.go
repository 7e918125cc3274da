package plugin_test

import (
	"fmt"
	"path"
	"path/filepath"

	"importcss/order"
	"importcss/plugin"
)

// memHost is in-memory host used by tests. Files emitted by name are placed
// at "assets/<name>-<n><ext>".
type memHost struct {
	sources map[string]string
	graph   map[string][]string
	files   map[string]plugin.EmittedFile
	names   map[string]string
}

func newMemHost() *memHost {
	return &memHost{
		sources: map[string]string{},
		graph:   map[string][]string{},
		files:   map[string]plugin.EmittedFile{},
		names:   map[string]string{},
	}
}

func (h *memHost) ReadSource(id string) (string, error) {
	src, ok := h.sources[id]
	if !ok {
		return "", fmt.Errorf("no such file: %s", id)
	}
	return src, nil
}

func (h *memHost) Resolve(source, importer string) (string, error) {
	return filepath.Join(filepath.Dir(importer), filepath.FromSlash(source)), nil
}

func (h *memHost) ModuleInfo(id string) (*order.ModuleInfo, bool) {
	imports, ok := h.graph[id]
	if !ok {
		return nil, false
	}
	return &order.ModuleInfo{ID: id, ImportedIDs: imports}, true
}

func (h *memHost) EmitFile(f plugin.EmittedFile) string {
	ref := fmt.Sprintf("#%d", len(h.files))
	h.files[ref] = f
	name := f.FileName
	if name == "" {
		ext := path.Ext(f.Name)
		name = fmt.Sprintf("assets/%s-%d%s", f.Name[:len(f.Name)-len(ext)], len(h.files), ext)
	}
	h.names[ref] = name
	return ref
}

func (h *memHost) FileName(ref string) string {
	return h.names[ref]
}

// Dir places files emitted by name next to assets.
func (h *memHost) Dir(string) string {
	return "assets"
}

// output returns emitted files by final name.
func (h *memHost) output() map[string]string {
	out := make(map[string]string, len(h.files))
	for ref, f := range h.files {
		out[h.names[ref]] = string(f.Source)
	}
	return out
}
