// Package plugin turns stylesheets into importable modules and assembles
// stylesheets imported for side effect into physical artifacts when the build
// finishes.
//
// A Session holds all state of a single build. Host calls Load, ResolveID and
// Transform while building module graph (possibly concurrently) and
// GenerateBundle once after all transforms are finished.
package plugin

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"importcss/css"
)

// TransformResult is generated module returned to host.
type TransformResult struct {
	Code  string
	Map   string
	Shape OutputShape
}

// TrackedImport is relative stylesheet import seen during resolution.
type TrackedImport struct {
	Importer string // module id of importer
	Source   string // specifier as written
	ID       string // resolved stylesheet id
}

// Session is a single build of the plugin.
type Session struct {
	ID string

	opts     Options
	filter   Filter
	registry *Registry
	log      *zap.Logger

	mu      sync.Mutex
	tracked []TrackedImport
}

// NewSession validates options and prepares empty session. Malformed glob
// patterns are reported here.
func NewSession(opts Options, log *zap.Logger) (*Session, error) {
	filter, err := NewFilter(opts.Include, opts.Exclude, opts.BaseDir)
	if err != nil {
		return nil, err
	}
	return NewSessionWithFilter(opts, filter, log), nil
}

// NewSessionWithFilter uses host supplied filter instead of glob patterns.
func NewSessionWithFilter(opts Options, filter Filter, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Transform == nil {
		opts.Transform = Identity
	}
	id := uuid.NewString()
	return &Session{
		ID:       id,
		opts:     opts,
		filter:   filter,
		registry: NewRegistry(),
		log:      log.Named("import-css").With(zap.String("session", id)),
	}
}

// Registry gives read access to transformed stylesheets.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Reset clears state accumulated by previous build (watch mode).
func (s *Session) Reset() {
	s.registry.Reset()

	s.mu.Lock()
	s.tracked = nil
	s.mu.Unlock()
}

// Load reads matching stylesheet as text. Second return value is false when
// id is not handled and host should load it itself.
func (s *Session) Load(id string, reader SourceReader) (string, bool, error) {
	if !s.filter.Match(id) {
		return "", false, nil
	}
	code, err := reader.ReadSource(id)
	if err != nil {
		return "", false, fmt.Errorf("unable to load stylesheet %s: %w", id, err)
	}
	return code, true, nil
}

// ResolveID intercepts relative stylesheet imports from non stylesheet
// modules, resolves them through the host and remembers them so they could be
// re-declared in split output. Second return value is false when import is not
// handled.
func (s *Session) ResolveID(source, importer string, resolver Resolver) (string, bool, error) {
	if importer == "" || !css.IsRelativeURL(source) || !strings.EqualFold(path.Ext(source), ".css") {
		return "", false, nil
	}
	if strings.EqualFold(filepath.Ext(importer), ".css") {
		return "", false, nil
	}

	id, err := resolver.Resolve(source, importer)
	if err != nil {
		return "", false, fmt.Errorf("unable to resolve %q from %s: %w", source, importer, err)
	}
	if !s.filter.Match(id) {
		return "", false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tracked {
		if t.Importer == importer && t.Source == source {
			return id, true, nil
		}
	}
	s.tracked = append(s.tracked, TrackedImport{Importer: importer, Source: source, ID: id})
	return id, true, nil
}

// Tracked returns copy of imports tracked so far in discovery order.
func (s *Session) Tracked() []TrackedImport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TrackedImport, len(s.tracked))
	copy(out, s.tracked)
	return out
}

// Transform converts stylesheet to module code and records its text for
// emission. Nil result means id is not handled. Attributes are import
// attributes of the importing statement, if host knows them.
func (s *Session) Transform(ctx context.Context, code, id string, attrs map[string]string) (*TransformResult, error) {
	if !s.filter.Match(id) {
		return nil, nil
	}

	text, err := s.opts.Transform.Transform(ctx, id, code)
	if err != nil {
		return nil, fmt.Errorf("unable to transform %s: %w", id, err)
	}
	if s.opts.Minify {
		text = css.Minify(text)
	}

	shape := ResolveShape(&s.opts, attrs)
	out, err := moduleCode(shape, text)
	if err != nil {
		return nil, fmt.Errorf("unable to generate module for %s: %w", id, err)
	}

	s.registry.Put(id, text)
	s.log.Debug("Stylesheet transformed",
		zap.String("id", id),
		zap.Stringer("shape", shape),
		zap.Int("in", len(code)),
		zap.Int("out", len(text)))

	return &TransformResult{Code: out, Map: EmptySourceMap, Shape: shape}, nil
}
