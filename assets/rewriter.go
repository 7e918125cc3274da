// Package assets relocates resources referenced from stylesheets (images,
// fonts) into the build output and rewrites references to point to the
// emitted copies.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"importcss/css"
)

// ErrAssetNotFound is returned when stylesheet references relative file which
// does not exist.
var ErrAssetNotFound = errors.New("referenced asset does not exist")

// EmittedFile describes a file handed over to the host for output. When
// FileName is set it is used verbatim, otherwise host derives final name from
// Name using its naming rules.
type EmittedFile struct {
	Name     string
	FileName string
	Source   []byte
}

// Emitter is the host capability to add files to the build output.
type Emitter interface {
	// EmitFile registers file for output and returns reference handle.
	EmitFile(f EmittedFile) string
	// FileName returns final output path (relative to output directory,
	// slash separated) for previously emitted file.
	FileName(ref string) string
}

// Locator is optional Emitter capability. Dir returns slash separated
// directory, relative to output directory, a file emitted by name would be
// placed into.
type Locator interface {
	Dir(name string) string
}

// Emitted records a single relocated resource.
type Emitted struct {
	Source   string // absolute path of the original file
	Ref      string // host reference handle
	FileName string // final output path
	MimeType string
}

// Rewriter copies relative url() resources into output. Every source file is
// emitted once per Rewriter no matter how many stylesheets reference it.
// Rewriter is not safe for concurrent use.
type Rewriter struct {
	emitter Emitter
	log     *zap.Logger
	seen    map[string]Emitted
}

// NewRewriter creates rewriter emitting through the given host capability.
func NewRewriter(emitter Emitter, log *zap.Logger) *Rewriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Rewriter{
		emitter: emitter,
		log:     log.Named("assets"),
		seen:    make(map[string]Emitted),
	}
}

// Rewrite processes stylesheet text of source id. Relative references are
// resolved against directory of id, emitted and replaced with path of emitted
// copy relative to fromDir - output directory of the stylesheet artifact
// itself. Absolute, protocol qualified, data and fragment references are left
// untouched. Returned slice lists resources emitted by this call.
func (r *Rewriter) Rewrite(id, text, fromDir string) (string, []Emitted, error) {
	refs := css.ScanURLs(text)
	if len(refs) == 0 {
		return text, nil, nil
	}

	var (
		b       strings.Builder
		last    int
		emitted []Emitted
	)
	b.Grow(len(text))

	for _, ref := range refs {
		if !css.IsRelativeURL(ref.URL) {
			r.log.Debug("Leaving reference as is", zap.String("id", id), zap.String("url", ref.URL[:min(50, len(ref.URL))]))
			continue
		}

		rel, suffix := splitSuffix(ref.URL)
		res, fresh, err := r.relocate(id, rel)
		if err != nil {
			return "", nil, err
		}
		if fresh {
			emitted = append(emitted, res)
		}

		b.WriteString(text[last:ref.Start])
		b.WriteString(ref.Replace(relativeTo(fromDir, res.FileName) + suffix))
		last = ref.End
	}
	b.WriteString(text[last:])

	return b.String(), emitted, nil
}

// relocate emits file referenced from stylesheet id unless it was already
// emitted. Second return value is true for newly emitted files.
func (r *Rewriter) relocate(id, rel string) (Emitted, bool, error) {
	src := filepath.Join(filepath.Dir(id), filepath.FromSlash(rel))
	if res, ok := r.seen[src]; ok {
		return res, false, nil
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Emitted{}, false, fmt.Errorf("%w: %q referenced from %s", ErrAssetNotFound, rel, id)
		}
		return Emitted{}, false, fmt.Errorf("unable to read asset %q referenced from %s: %w", rel, id, err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	mimeType := detectMimeType(ext, data)
	if !validateResource(mimeType, data) {
		r.log.Warn("Asset content does not match its type, copying anyway",
			zap.String("id", id),
			zap.String("url", rel),
			zap.String("mime", mimeType))
	}

	ref := r.emitter.EmitFile(EmittedFile{Name: assetName(src), Source: data})
	res := Emitted{
		Source:   src,
		Ref:      ref,
		FileName: r.emitter.FileName(ref),
		MimeType: mimeType,
	}
	r.seen[src] = res

	r.log.Debug("Relocated stylesheet asset",
		zap.String("id", id),
		zap.String("url", rel),
		zap.String("file", res.FileName),
		zap.String("mime", mimeType),
		zap.Int("bytes", len(data)))

	return res, true, nil
}

// splitSuffix separates query and fragment (e.g. "font.eot?#iefix") from the
// file path.
func splitSuffix(u string) (string, string) {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i], u[i:]
	}
	return u, ""
}

// relativeTo returns slash separated path of target as seen from directory
// dir, both relative to output directory. Result always starts with "./" or
// "../".
func relativeTo(dir, target string) string {
	if dir == "" {
		dir = "."
	}
	rel, err := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(target))
	if err != nil {
		rel = target
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		return rel
	}
	return "./" + path.Clean(rel)
}

// assetName suggests output name for the resource: sanitized base name with
// original extension.
func assetName(src string) string {
	ext := filepath.Ext(src)
	name := slug.Make(strings.TrimSuffix(filepath.Base(src), ext))
	if name == "" {
		name = "asset"
	}
	return name + strings.ToLower(ext)
}

// detectMimeType prefers content sniffing, falls back to extension and finally
// to net/http detection.
func detectMimeType(ext string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if m := extToMimeType(ext); m != "" {
		return m
	}
	return http.DetectContentType(data)
}

// validateResource performs additional sanity check on fonts.
func validateResource(mimeType string, data []byte) bool {
	switch mimeType {
	case "font/woff":
		return filetype.Is(data, "woff")
	case "font/woff2":
		return filetype.Is(data, "woff2")
	case "font/ttf":
		return filetype.Is(data, "ttf")
	case "font/otf":
		return filetype.Is(data, "otf")
	}
	return true
}

func extToMimeType(ext string) string {
	switch ext {
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".ttf":
		return "font/ttf"
	case ".otf":
		return "font/otf"
	case ".eot":
		return "application/vnd.ms-fontobject"
	case ".svg":
		return "image/svg+xml"
	case ".avif":
		return "image/avif"
	default:
		return ""
	}
}
