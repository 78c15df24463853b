package generation

import (
	"fmt"
	"gocsdump/internal/metadata"
	"sort"
	"strings"
)

const multicastDelegate = "System.MulticastDelegate"

func isDelegate(t *metadata.Type) bool {
	return t.IsClass && t.IsSealed && t.BaseType != nil && t.BaseType.FullName() == multicastDelegate
}

// typeDeclaration renders a full type, or "" when the type is suppressed.
func (c *renderContext) typeDeclaration(t *metadata.Type, prefix string) string {
	if c.suppressed(t.HasMarker) {
		return ""
	}

	var sb strings.Builder
	if t.IsImport {
		sb.WriteString(prefix + "[ComImport]\n")
	}
	if t.IsSerializable {
		sb.WriteString(prefix + "[Serializable]\n")
	}
	sb.WriteString(c.attributes(t.Attributes, prefix, "", attributesPerLine))

	// Delegates without an Invoke method fall through to the class syntax.
	if invoke, ok := t.TryGetMethod("Invoke"); ok && isDelegate(t) {
		sb.WriteString(c.delegateDeclaration(t, invoke, prefix))
		return sb.String()
	}

	sb.WriteString(prefix + typeModifiers(t) + declarationName(t))
	if bases := c.baseList(t); len(bases) > 0 {
		sb.WriteString(" : " + strings.Join(bases, ", "))
	}
	fmt.Fprintf(&sb, " // TypeDefIndex: %d\n", t.Index)

	for _, gp := range t.GenericParameters {
		if constraint := c.constraints(gp); constraint != "" {
			sb.WriteString(prefix + "\t" + constraint + "\n")
		}
	}

	sb.WriteString(prefix + "{\n")
	if t.IsEnum {
		sb.WriteString(c.enumBody(t, prefix))
	} else {
		sb.WriteString(c.typeBody(t, prefix))
	}
	sb.WriteString(prefix + "}\n")
	return sb.String()
}

func (c *renderContext) delegateDeclaration(t *metadata.Type, invoke *metadata.Method, prefix string) string {
	var sb strings.Builder
	sb.WriteString(prefix + accessModifier(t.Access))
	if invoke.RequiresUnsafe {
		sb.WriteString("unsafe ")
	}
	sb.WriteString("delegate " + c.returnTypeName(invoke.ReturnType) + " " + declarationName(t))
	sb.WriteString("(" + c.parameters(invoke.Parameters, false) + ");")
	fmt.Fprintf(&sb, " // TypeDefIndex: %d", t.Index)
	if invoke.Address != 0 {
		sb.WriteString("; " + addressString(invoke.Address))
	}
	sb.WriteString("\n")
	return sb.String()
}

// baseList lists the base type and implemented interfaces. Enums list their
// underlying type instead when it is not the implicit int.
func (c *renderContext) baseList(t *metadata.Type) []string {
	var bases []string
	if t.IsEnum {
		if underlying := t.EnumUnderlyingType(); underlying != nil && underlying.FullName() != "System.Int32" {
			bases = append(bases, c.typeName(underlying))
		}
	} else if t.BaseType != nil {
		switch t.BaseType.FullName() {
		case "System.Object", "System.ValueType":
		default:
			bases = append(bases, c.typeName(t.BaseType))
		}
	}
	for _, iface := range t.Interfaces {
		bases = append(bases, c.typeName(iface))
	}
	return bases
}

// enumBody lists the enum constants ordered by value. Constants whose value is
// not an integer keep declaration order after the numeric ones.
func (c *renderContext) enumBody(t *metadata.Type, prefix string) string {
	var constants []*metadata.Field
	for _, f := range t.Fields {
		if f.IsLiteral {
			constants = append(constants, f)
		}
	}
	sort.SliceStable(constants, func(i, j int) bool {
		vi, iok := integerValue(constants[i].DefaultValue)
		vj, jok := integerValue(constants[j].DefaultValue)
		if iok && jok {
			return vi.Cmp(vj) < 0
		}
		return iok && !jok
	})

	if len(constants) == 0 {
		return ""
	}
	lines := make([]string, len(constants))
	for i, f := range constants {
		lines[i] = prefix + "\t" + f.Name
		if f.HasDefaultValue {
			lines[i] += " = " + literal(f.DefaultValue)
		}
	}
	return strings.Join(lines, ",\n") + "\n"
}
