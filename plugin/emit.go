package plugin

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"importcss/assets"
	"importcss/order"
)

// GenerateBundle emits stylesheets which were imported for side effect only,
// in the order host would have applied them. Must be called after all
// transforms of the build have completed.
func (s *Session) GenerateBundle(ctx context.Context, out OutputOptions, bundle *Bundle, graph ModuleInfoProvider, emitter Emitter) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := bundle.entry()
	var entryID, entryChunk string
	if entry != nil {
		entryID, entryChunk = entry.FacadeModuleID, entry.FileName
	}

	plan := ResolvePlan(&s.opts, out, entryChunk)
	sheets := s.ordered(bundle, entryID, graph)

	var rewriter *assets.Rewriter
	if plan.RewriteAssets {
		rewriter = assets.NewRewriter(emitter, s.log)
	}

	if plan.Split {
		return s.emitSplit(ctx, plan, out, bundle, entryID, sheets, emitter, rewriter)
	}
	return s.emitMerged(ctx, plan, sheets, emitter, rewriter)
}

// ordered returns registry records which were not consumed as values, sorted
// by module graph order. Records unknown to the graph follow in insertion
// order.
func (s *Session) ordered(bundle *Bundle, entryID string, graph ModuleInfoProvider) []Record {
	consumed := make(map[string]bool)
	if bundle != nil {
		for _, c := range bundle.Chunks {
			for id, m := range c.Modules {
				if m.ConsumedAsValue() {
					consumed[id] = true
				}
			}
		}
	}

	var sheets []Record
	for _, r := range s.registry.Snapshot() {
		if consumed[r.ID] {
			s.log.Debug("Stylesheet consumed as value, not emitting", zap.String("id", r.ID))
			continue
		}
		sheets = append(sheets, r)
	}

	if entryID == "" || graph == nil {
		return sheets
	}
	idx := order.Index(order.Resolve(entryID, graph))
	position := func(id string) int {
		if i, ok := idx[id]; ok {
			return i
		}
		return len(idx)
	}
	slices.SortStableFunc(sheets, func(a, b Record) int {
		return position(a.ID) - position(b.ID)
	})
	return sheets
}

func (s *Session) emitMerged(ctx context.Context, plan Plan, sheets []Record, emitter Emitter, rewriter *assets.Rewriter) error {
	fromDir := "."
	if plan.FileName != "" {
		fromDir = path.Dir(plan.FileName)
	} else if l, ok := emitter.(Locator); ok {
		fromDir = l.Dir(plan.Name)
	}

	parts := make([]string, 0, len(sheets))
	for _, r := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := s.rewrite(rewriter, r, fromDir)
		if err != nil {
			return err
		}
		parts = append(parts, text)
	}

	merged := strings.Join(parts, plan.Separator)
	if len(merged) == 0 && !plan.AlwaysOutput {
		s.log.Debug("Nothing to emit", zap.Int("stylesheets", len(sheets)))
		return nil
	}

	ref := emitter.EmitFile(EmittedFile{Name: plan.Name, FileName: plan.FileName, Source: []byte(merged)})
	s.log.Info("Stylesheet emitted",
		zap.String("file", emitter.FileName(ref)),
		zap.Int("stylesheets", len(sheets)),
		zap.Int("bytes", len(merged)))
	return nil
}

func (s *Session) emitSplit(ctx context.Context, plan Plan, out OutputOptions, bundle *Bundle, entryID string, sheets []Record, emitter Emitter, rewriter *assets.Rewriter) error {
	root := out.PreserveModulesRoot
	if root == "" && entryID != "" {
		root = filepath.Dir(entryID)
	}

	emitted := make(map[string]bool, len(sheets))
	for _, r := range sheets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(r.Text) == 0 && !plan.AlwaysOutput {
			s.log.Debug("Skipping empty stylesheet", zap.String("id", r.ID))
			continue
		}

		fileName := MirrorPath(root, r.ID)
		text, err := s.rewrite(rewriter, r, path.Dir(fileName))
		if err != nil {
			return err
		}
		ref := emitter.EmitFile(EmittedFile{FileName: fileName, Source: []byte(text)})
		emitted[r.ID] = true
		s.log.Debug("Stylesheet emitted", zap.String("id", r.ID), zap.String("file", emitter.FileName(ref)))
	}

	if plan.PreserveImports {
		s.restoreImports(bundle, emitted)
	}
	return nil
}

// restoreImports puts side effect imports of extracted stylesheets back to the
// top of owning chunks. Walking in reverse discovery order while prepending
// keeps original order of imports in the chunk.
func (s *Session) restoreImports(bundle *Bundle, emitted map[string]bool) {
	if bundle == nil {
		return
	}
	imported := make(map[*Chunk]map[string]bool)

	tracked := s.Tracked()
	for i := len(tracked) - 1; i >= 0; i-- {
		t := tracked[i]
		if !emitted[t.ID] {
			continue
		}
		chunk := bundle.owner(t.Importer)
		if chunk == nil {
			continue
		}
		seen, ok := imported[chunk]
		if !ok {
			seen = make(map[string]bool, len(chunk.Imports))
			for _, spec := range chunk.Imports {
				seen[spec] = true
			}
			imported[chunk] = seen
		}
		if seen[t.Source] {
			continue
		}
		seen[t.Source] = true
		chunk.Code = "import " + JSString(t.Source) + ";\n" + chunk.Code
		chunk.Imports = append(chunk.Imports, t.Source)
	}
}

func (s *Session) rewrite(rewriter *assets.Rewriter, r Record, fromDir string) (string, error) {
	if rewriter == nil {
		return r.Text, nil
	}
	text, emitted, err := rewriter.Rewrite(r.ID, r.Text, fromDir)
	if err != nil {
		return "", fmt.Errorf("unable to copy assets of %s: %w", r.ID, err)
	}
	for _, e := range emitted {
		s.log.Debug("Asset copied", zap.String("id", r.ID), zap.String("source", e.Source), zap.String("file", e.FileName))
	}
	return text, nil
}

// MirrorPath returns slash separated output path of module id relative to
// source root. Modules outside of root keep their relative location with
// every parent step written as "_" ("../lib/x.css" becomes "_/lib/x.css"),
// modules on another volume go under "_/" with their full path. Base name is
// used when root is unknown.
func MirrorPath(root, id string) string {
	if root == "" {
		return filepath.Base(id)
	}
	rel, err := filepath.Rel(root, id)
	if err != nil {
		return "_/" + strings.TrimLeft(filepath.ToSlash(strings.TrimPrefix(id, filepath.VolumeName(id))), "/")
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for i, p := range parts {
		if p == ".." {
			parts[i] = "_"
		}
	}
	return strings.Join(parts, "/")
}
