package generation

import (
	"fmt"
	"gocsdump/internal/metadata"
	"strings"
)

// memberKind is a labelled block of a type body. Blocks render in declaration
// order; properties and events come before the method blocks because they
// consume their accessor methods.
type memberKind int

const (
	memberFields memberKind = iota
	memberProperties
	memberEvents
	memberNestedTypes
	memberConstructors
	memberMethods
	memberExtensionMethods

	memberKindCount
)

func (k memberKind) String() string {
	switch k {
	case memberFields:
		return "Fields"
	case memberProperties:
		return "Properties"
	case memberEvents:
		return "Events"
	case memberNestedTypes:
		return "Nested types"
	case memberConstructors:
		return "Constructors"
	case memberMethods:
		return "Methods"
	case memberExtensionMethods:
		return "Extension methods"
	}
	return fmt.Sprintf("memberKind(%d)", int(k))
}

func (c *renderContext) memberBlock(kind memberKind, t *metadata.Type, prefix string, used consumedMethods) string {
	switch kind {
	case memberFields:
		return c.fields(t, prefix)
	case memberProperties:
		return c.properties(t, prefix, used)
	case memberEvents:
		return c.events(t, prefix, used)
	case memberNestedTypes:
		return c.nestedTypes(t, prefix)
	case memberConstructors:
		return c.constructors(t, prefix, used)
	case memberMethods:
		return c.methods(t, prefix, used, false)
	case memberExtensionMethods:
		return c.methods(t, prefix, used, true)
	}
	panic(fmt.Sprintf("generation: no renderer for %v", kind))
}

// typeBody joins the non-empty member blocks, each under a comment label.
func (c *renderContext) typeBody(t *metadata.Type, prefix string) string {
	used := consumedMethods{}
	var blocks []string
	for kind := memberKind(0); kind < memberKindCount; kind++ {
		text := c.memberBlock(kind, t, prefix, used)
		if text == "" {
			continue
		}
		blocks = append(blocks, prefix+"\t// "+kind.String()+"\n"+text)
	}
	return strings.Join(blocks, "\n")
}

func (c *renderContext) nestedTypes(t *metadata.Type, prefix string) string {
	var rendered []string
	for _, nested := range t.NestedTypes {
		if text := c.typeDeclaration(nested, prefix+"\t"); text != "" {
			rendered = append(rendered, text)
		}
	}
	return strings.Join(rendered, "\n")
}
