package plugin

import (
	"slices"

	"importcss/assets"
	"importcss/order"
)

// Host capabilities the plugin depends on. Each is deliberately narrow so a
// binding to a particular bundler only implements what is used.
type (
	// SourceReader loads raw source text.
	SourceReader interface {
		ReadSource(id string) (string, error)
	}

	// Resolver turns import specifier into absolute module id.
	Resolver interface {
		Resolve(source, importer string) (string, error)
	}

	// Emitter adds files to build output.
	Emitter = assets.Emitter

	// Locator tells where Emitter places files emitted by name.
	Locator = assets.Locator

	// EmittedFile describes file handed to Emitter.
	EmittedFile = assets.EmittedFile

	// ModuleInfoProvider exposes host module graph.
	ModuleInfoProvider = order.ModuleInfoProvider
)

// OutputOptions describes how host writes build output.
type OutputOptions struct {
	Dir                 string // output directory
	File                string // single output file when configured
	PreserveModules     bool   // one output chunk per source module
	PreserveModulesRoot string // source root mirrored into output in preserve modules mode
	AssetFileNames      string // host naming pattern for assets, empty when not configured
}

// RenderedModule is what host knows about module after tree-shaking.
type RenderedModule struct {
	RenderedLength int
	RemovedExports []string
}

// ConsumedAsValue reports whether module code survived in the output, meaning
// its default export was actually used rather than imported for side effect.
func (m RenderedModule) ConsumedAsValue() bool {
	return m.RenderedLength > 0 || !slices.Contains(m.RemovedExports, "default")
}

// Chunk is a single rendered output chunk.
type Chunk struct {
	FileName       string
	IsEntry        bool
	FacadeModuleID string
	Modules        map[string]RenderedModule
	Imports        []string // specifiers already imported by chunk code
	Code           string
}

// Bundle is the set of chunks produced by a build.
type Bundle struct {
	Chunks []*Chunk
}

// entry returns first entry chunk with facade module.
func (b *Bundle) entry() *Chunk {
	if b == nil {
		return nil
	}
	for _, c := range b.Chunks {
		if c.IsEntry && c.FacadeModuleID != "" {
			return c
		}
	}
	return nil
}

// owner returns chunk containing module id.
func (b *Bundle) owner(id string) *Chunk {
	if b == nil {
		return nil
	}
	for _, c := range b.Chunks {
		if _, ok := c.Modules[id]; ok {
			return c
		}
	}
	return nil
}
