package host

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

// DefaultAssetFileNames is used for files emitted by name when build has no
// naming template configured.
const DefaultAssetFileNames = `assets/{{ .Name }}-{{ .Hash | trunc 8 }}{{ .Ext }}`

// NameValues are available to naming template.
type NameValues struct {
	Name string // base name without extension
	Ext  string // extension with leading dot
	Hash string // hex sha256 of content
}

// Namer expands naming template for emitted files. Template has access to
// slim-sprig functions.
type Namer struct {
	tmpl *template.Template
}

// NewNamer parses naming template, DefaultAssetFileNames when empty.
func NewNamer(pattern string) (*Namer, error) {
	if pattern == "" {
		pattern = DefaultAssetFileNames
	}
	tmpl, err := template.New("asset_file_names").Funcs(sprig.FuncMap()).Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad asset naming template: %w", err)
	}
	return &Namer{tmpl: tmpl}, nil
}

// Name returns slash separated output path for file content.
func (n *Namer) Name(name string, source []byte) (string, error) {
	sum := sha256.Sum256(source)
	ext := path.Ext(name)
	values := NameValues{
		Name: strings.TrimSuffix(path.Base(name), ext),
		Ext:  ext,
		Hash: hex.EncodeToString(sum[:]),
	}

	buf := new(bytes.Buffer)
	if err := n.tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand asset name for %s: %w", name, err)
	}
	out := path.Clean(strings.TrimSpace(buf.String()))
	if out == "." || out == "/" || strings.HasPrefix(out, "../") {
		return "", fmt.Errorf("asset name %q for %s is outside of output directory", out, name)
	}
	return strings.TrimPrefix(out, "/"), nil
}
