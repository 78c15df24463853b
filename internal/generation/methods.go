package generation

import (
	"gocsdump/internal/metadata"
	"strings"
)

// consumedMethods holds accessor and constructor methods already rendered for
// a type, so the method blocks do not emit them again.
type consumedMethods map[*metadata.Method]bool

func (used consumedMethods) add(methods ...*metadata.Method) {
	for _, m := range methods {
		if m != nil {
			used[m] = true
		}
	}
}

// addressComment is empty for methods that never received native code.
func addressComment(m *metadata.Method) string {
	if m.Address == 0 {
		return ""
	}
	return " // " + addressString(m.Address)
}

func (c *renderContext) constructors(t *metadata.Type, prefix string, used consumedMethods) string {
	var sb strings.Builder
	for _, m := range t.Constructors {
		used.add(m)
		if c.suppressed(m.HasMarker) {
			continue
		}
		sb.WriteString(c.attributes(m.Attributes, prefix+"\t", "", attributesPerLine))
		sb.WriteString(prefix + "\t" + methodModifiers(m) + metadata.StripArity(t.Name))
		sb.WriteString("(" + c.parameters(m.Parameters, false) + ");" + addressComment(m) + "\n")
	}
	return sb.String()
}

// methods renders either the ordinary or the extension methods of a type.
// A method is an extension method iff it carries the extension marker.
func (c *renderContext) methods(t *metadata.Type, prefix string, used consumedMethods, extension bool) string {
	var sb strings.Builder
	for _, m := range t.Methods {
		if used[m] || m.HasMarker(metadata.MarkerExtension) != extension {
			continue
		}
		if c.suppressed(m.HasMarker) {
			continue
		}
		sb.WriteString(c.method(m, prefix))
	}
	return sb.String()
}

func (c *renderContext) method(m *metadata.Method, prefix string) string {
	var sb strings.Builder
	sb.WriteString(c.attributes(m.Attributes, prefix+"\t", "", attributesPerLine))
	sb.WriteString(c.attributes(m.ReturnAttributes, prefix+"\t", "return: ", attributesPerLine))
	sb.WriteString(prefix + "\t" + methodModifiers(m))

	switch {
	case isConversionOperator(m):
		sb.WriteString(methodName(m) + c.typeName(m.ReturnType))
	case isFinalizer(m) && m.DeclaringType != nil:
		sb.WriteString("~" + metadata.StripArity(m.DeclaringType.Name))
	default:
		sb.WriteString(c.returnTypeName(m.ReturnType) + " " + methodName(m) + genericSuffix(m.GenericParameters))
	}
	sb.WriteString("(" + c.parameters(m.Parameters, m.HasMarker(metadata.MarkerExtension)) + ")")

	for _, gp := range m.GenericParameters {
		if constraint := c.constraints(gp); constraint != "" {
			sb.WriteString("\n" + prefix + "\t\t" + constraint)
		}
	}
	sb.WriteString(";" + addressComment(m) + "\n")
	return sb.String()
}

func (c *renderContext) parameters(params []*metadata.Parameter, extension bool) string {
	rendered := make([]string, len(params))
	for i, p := range params {
		var sb strings.Builder
		sb.WriteString(c.attributes(p.Attributes, "", "", attributesInline))
		if i == 0 && extension {
			sb.WriteString("this ")
		}
		if p.HasMarker(metadata.MarkerParamArray) {
			sb.WriteString("params ")
		}
		switch {
		case p.Modifier == metadata.ParameterOut:
			sb.WriteString("out ")
		case p.Modifier == metadata.ParameterIn:
			sb.WriteString("in ")
		case p.Modifier == metadata.ParameterRef, p.Type != nil && p.Type.Kind == metadata.RefByRef:
			sb.WriteString("ref ")
		}
		sb.WriteString(c.typeName(p.Type) + " " + p.Name)
		if p.HasDefaultValue {
			sb.WriteString(" = " + literal(p.DefaultValue))
		}
		rendered[i] = sb.String()
	}
	return strings.Join(rendered, ", ")
}

// constraints renders a generic parameter's where clause, or "" when the
// parameter is unconstrained.
func (c *renderContext) constraints(gp *metadata.GenericParameter) string {
	var list []string
	if gp.ReferenceType {
		list = append(list, "class")
	} else if gp.ValueType {
		list = append(list, "struct")
	}
	for _, constraint := range gp.Constraints {
		switch constraint.FullName() {
		case "System.Object", "System.ValueType":
			continue
		}
		list = append(list, c.typeName(constraint))
	}
	if gp.DefaultConstructor && !gp.ValueType {
		list = append(list, "new()")
	}
	if len(list) == 0 {
		return ""
	}
	return "where " + gp.Name + " : " + strings.Join(list, ", ")
}
