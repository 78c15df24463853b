package generation

import (
	"gocsdump/internal/metadata"
	"strings"
)

// isIndexer reports whether a property takes index parameters. The last
// parameter of a setter is always the assigned value.
func isIndexer(p *metadata.Property) bool {
	return (p.Getter != nil && len(p.Getter.Parameters) > 0) ||
		(p.Setter != nil && len(p.Setter.Parameters) > 1)
}

func (c *renderContext) properties(t *metadata.Type, prefix string, used consumedMethods) string {
	var sb strings.Builder
	for _, p := range t.Properties {
		if p.Getter == nil && p.Setter == nil {
			continue
		}
		used.add(p.Getter, p.Setter)
		if c.suppressed(p.HasMarker) {
			continue
		}

		getAccess, setAccess := accessorAccess(p.Getter), accessorAccess(p.Setter)
		primary := p.Getter
		if primary == nil || getAccess < setAccess {
			primary = p.Setter
		}

		sb.WriteString(c.attributes(p.Attributes, prefix+"\t", "", attributesPerLine))
		sb.WriteString(prefix + "\t" + methodModifiers(primary) + c.typeName(p.Type) + " ")

		if isIndexer(p) {
			params := primary.Parameters
			if primary == p.Setter && len(params) > 0 {
				params = params[:len(params)-1]
			}
			// Explicit interface implementations keep their qualifier.
			if i := strings.LastIndexByte(p.Name, '.'); i >= 0 {
				sb.WriteString(p.Name[:i+1])
			}
			sb.WriteString("this[" + c.parameters(params, false) + "] { ")
		} else {
			sb.WriteString(p.Name + " { ")
		}

		if p.Getter != nil {
			sb.WriteString(c.accessorAttributes(p.Getter))
			if getAccess < setAccess {
				sb.WriteString(accessModifier(getAccess))
			}
			sb.WriteString("get; ")
		}
		if p.Setter != nil {
			sb.WriteString(c.accessorAttributes(p.Setter))
			if setAccess < getAccess {
				sb.WriteString(accessModifier(setAccess))
			}
			sb.WriteString("set; ")
		}
		sb.WriteString("}")

		var addresses []string
		for _, m := range []*metadata.Method{p.Getter, p.Setter} {
			if m != nil && m.Address != 0 {
				addresses = append(addresses, addressString(m.Address))
			}
		}
		if len(addresses) > 0 {
			sb.WriteString(" // " + strings.Join(addresses, " "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
