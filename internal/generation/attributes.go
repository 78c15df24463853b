package generation

import (
	"gocsdump/internal/metadata"
	"sort"
	"strings"
)

type attributeMode int

const (
	attributesPerLine attributeMode = iota
	attributesInline
)

// Structural markers consumed by other renderers. The default-member marker is
// dropped unconditionally, even when the type declares no indexer.
var excludedMarkers = map[metadata.MarkerRole]bool{
	metadata.MarkerFixedBuffer:   true,
	metadata.MarkerExtension:     true,
	metadata.MarkerDefaultMember: true,
	metadata.MarkerParamArray:    true,
}

// attributes renders an attribute list sorted by attribute type name. target is
// an optional attribute target such as "assembly: " or "return: ".
func (c *renderContext) attributes(list []*metadata.CustomAttribute, prefix, target string, mode attributeMode, exclude ...metadata.MarkerRole) string {
	kept := make([]*metadata.CustomAttribute, 0, len(list))
	for _, a := range list {
		if excludedMarkers[a.Role] || containsRole(exclude, a.Role) {
			continue
		}
		kept = append(kept, a)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return metadata.StripArity(kept[i].Type.Name) < metadata.StripArity(kept[j].Type.Name)
	})

	var sb strings.Builder
	for _, a := range kept {
		if mode == attributesPerLine {
			sb.WriteString(prefix)
		}
		sb.WriteString("[" + target + c.attributeName(a) + attributeArguments(a) + "]")
		if mode == attributesPerLine {
			sb.WriteString("\n")
		} else {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

// accessorAttributes renders getter/setter attributes inline, stripping the
// compiler-generated marker when generated code is suppressed.
func (c *renderContext) accessorAttributes(m *metadata.Method) string {
	if c.options.SuppressCompilerGenerated {
		return c.attributes(m.Attributes, "", "", attributesInline, metadata.MarkerCompilerGenerated)
	}
	return c.attributes(m.Attributes, "", "", attributesInline)
}

func (c *renderContext) attributeName(a *metadata.CustomAttribute) string {
	name := c.typeName(a.Type)
	if strings.HasSuffix(name, "Attribute") && len(name) > len("Attribute") {
		name = strings.TrimSuffix(name, "Attribute")
	}
	return name
}

func attributeArguments(a *metadata.CustomAttribute) string {
	if len(a.Arguments) == 0 && len(a.NamedArguments) == 0 {
		return ""
	}
	args := append([]string(nil), a.Arguments...)
	for _, named := range a.NamedArguments {
		args = append(args, named.Name+" = "+named.Value)
	}
	return "(" + strings.Join(args, ", ") + ")"
}

func containsRole(roles []metadata.MarkerRole, role metadata.MarkerRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
