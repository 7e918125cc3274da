package host

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"importcss/plugin"
)

// Output collects build output in memory and implements plugin.Emitter.
// Files are written to disk with Write when build succeeds.
type Output struct {
	namer *Namer

	mu    sync.Mutex
	files map[string][]byte // by output path
	refs  []string          // reference handle to output path
	errs  error
}

func NewOutput(namer *Namer) *Output {
	return &Output{namer: namer, files: make(map[string][]byte)}
}

// EmitFile implements plugin.Emitter. Files without explicit file name are
// named by template, clashing names of different content get numeric suffix.
func (o *Output) EmitFile(f plugin.EmittedFile) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	name := f.FileName
	if name == "" {
		var err error
		if name, err = o.namer.Name(f.Name, f.Source); err != nil {
			o.errs = multierr.Append(o.errs, err)
			name = f.Name
		}
		name = o.unique(name, f.Source)
	} else if old, exists := o.files[name]; exists && !bytes.Equal(old, f.Source) {
		o.errs = multierr.Append(o.errs, fmt.Errorf("file %s emitted twice with different content", name))
	}

	o.files[name] = f.Source
	o.refs = append(o.refs, name)
	return strconv.Itoa(len(o.refs) - 1)
}

func (o *Output) unique(name string, source []byte) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		old, exists := o.files[name]
		if !exists || bytes.Equal(old, source) {
			return name
		}
		name = fmt.Sprintf("%s%d%s", base, n, ext)
	}
}

// Dir implements plugin.Locator. Naming template must not derive directory
// from content hash.
func (o *Output) Dir(name string) string {
	out, err := o.namer.Name(name, nil)
	if err != nil {
		return "."
	}
	return path.Dir(out)
}

// FileName implements plugin.Emitter.
func (o *Output) FileName(ref string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	i, err := strconv.Atoi(ref)
	if err != nil || i < 0 || i >= len(o.refs) {
		return ""
	}
	return o.refs[i]
}

// Add puts chunk or other file into output.
func (o *Output) Add(name string, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.files[name] = data
}

// Err returns accumulated emission errors.
func (o *Output) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errs
}

// Names returns output paths in natural order.
func (o *Output) Names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	names := make([]string, 0, len(o.files))
	for name := range o.files {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// File returns content of output file.
func (o *Output) File(name string) ([]byte, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.files[name]
	return data, ok
}

// Write stores all files under dir. Writing continues after failures, all
// errors are returned.
func (o *Output) Write(dir string) (err error) {
	for _, name := range o.Names() {
		data, _ := o.File(name)
		target := filepath.Join(dir, filepath.FromSlash(name))
		if e := os.MkdirAll(filepath.Dir(target), 0755); e != nil {
			err = multierr.Append(err, e)
			continue
		}
		if e := os.WriteFile(target, data, 0644); e != nil {
			err = multierr.Append(err, fmt.Errorf("unable to write %s: %w", name, e))
		}
	}
	return err
}
