// Package order linearizes module dependency graph into the sequence in which
// the host would evaluate modules, so stylesheets can be emitted in the order
// they would have been applied.
package order

// ModuleInfo is what resolver needs to know about a module.
type ModuleInfo struct {
	ID          string
	ImportedIDs []string // in source order
}

// ModuleInfoProvider gives access to host's module graph. Second return value
// is false for modules host does not know about (pruned or external).
type ModuleInfoProvider interface {
	ModuleInfo(id string) (*ModuleInfo, bool)
}

// ProviderFunc adapts ordinary function to ModuleInfoProvider.
type ProviderFunc func(id string) (*ModuleInfo, bool)

func (f ProviderFunc) ModuleInfo(id string) (*ModuleInfo, bool) {
	return f(id)
}

// Resolve walks the graph depth first starting at entry and returns module ids
// in pre-order: module goes before its imports, imports are visited in the
// order host reports them. Every module appears once, cycles and diamonds are
// cut by the visited set. Unknown modules are leaves.
func Resolve(entry string, graph ModuleInfoProvider) []string {
	if entry == "" {
		return nil
	}

	var (
		result  []string
		visited = map[string]bool{}
		stack   = []string{entry}
	)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		result = append(result, id)

		info, ok := graph.ModuleInfo(id)
		if !ok || info == nil {
			continue
		}
		// push in reverse so the first import is popped first
		for i := len(info.ImportedIDs) - 1; i >= 0; i-- {
			if dep := info.ImportedIDs[i]; !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}
	return result
}

// Index maps ids to their positions in resolved order.
func Index(ids []string) map[string]int {
	idx := make(map[string]int, len(ids))
	for i, id := range ids {
		idx[id] = i
	}
	return idx
}
