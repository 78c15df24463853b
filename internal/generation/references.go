package generation

import (
	"gocsdump/internal/metadata"
	"sort"
	"strings"
)

// namespaceSet accumulates the namespaces a rendered unit refers to.
type namespaceSet map[string]struct{}

func (s namespaceSet) add(namespace string) {
	if namespace != "" {
		s[namespace] = struct{}{}
	}
}

func (s namespaceSet) union(other namespaceSet) {
	for ns := range other {
		s[ns] = struct{}{}
	}
}

// sorted orders System and its children ahead of everything else.
func (s namespaceSet) sorted() []string {
	list := make([]string, 0, len(s))
	for ns := range s {
		list = append(list, ns)
	}
	sort.Slice(list, func(i, j int) bool {
		si, sj := isSystemNamespace(list[i]), isSystemNamespace(list[j])
		if si != sj {
			return si
		}
		return list[i] < list[j]
	})
	return list
}

func isSystemNamespace(namespace string) bool {
	return namespace == "System" || strings.HasPrefix(namespace, "System.")
}

// renderContext is owned by a single top-level type render. Every type name it
// renders is recorded in refs, which the caller collects once rendering ends.
type renderContext struct {
	options *Options
	refs    namespaceSet
}

func newRenderContext(options *Options) *renderContext {
	return &renderContext{options: options, refs: namespaceSet{}}
}

func (c *renderContext) typeName(r *metadata.TypeRef) string {
	c.reference(r)
	return typeName(r)
}

func (c *renderContext) returnTypeName(r *metadata.TypeRef) string {
	c.reference(r)
	return returnTypeName(r)
}

func (c *renderContext) reference(r *metadata.TypeRef) {
	r.Walk(func(ref *metadata.TypeRef) {
		if ref.Kind == metadata.RefNamed && !isLanguageKeyword(ref) {
			c.refs.add(ref.RootNamespace())
		}
	})
}

func (c *renderContext) suppressed(hasMarker func(metadata.MarkerRole) bool) bool {
	return c.options.SuppressCompilerGenerated && hasMarker(metadata.MarkerCompilerGenerated)
}
