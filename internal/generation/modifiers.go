package generation

import (
	"gocsdump/internal/metadata"
	"strings"
)

// Access tokens include their trailing space so modifiers concatenate directly.
func accessModifier(access metadata.Access) string {
	switch access {
	case metadata.AccessPublic:
		return "public "
	case metadata.AccessFamilyOrAssembly:
		return "protected internal "
	case metadata.AccessFamily:
		return "protected "
	case metadata.AccessAssembly:
		return "internal "
	case metadata.AccessFamilyAndAssembly:
		return "private protected "
	case metadata.AccessPrivate:
		return "private "
	}
	return ""
}

// accessorAccess treats a missing accessor as the least permissive level.
func accessorAccess(m *metadata.Method) metadata.Access {
	if m == nil {
		return metadata.AccessCompilerControlled
	}
	return m.Access
}

// methodModifiers renders access, static, the inheritance keyword, extern and
// unsafe, in that order. Interface members never carry modifiers.
func methodModifiers(m *metadata.Method) string {
	if m.DeclaringType != nil && m.DeclaringType.IsInterface {
		return ""
	}
	if m.Name == ".cctor" {
		return "static "
	}

	var sb strings.Builder
	sb.WriteString(accessModifier(m.Access))
	if m.IsStatic {
		sb.WriteString("static ")
	}
	switch {
	case m.IsAbstract && m.IsNewSlot:
		sb.WriteString("abstract ")
	case m.IsAbstract:
		sb.WriteString("abstract override ")
	case m.IsVirtual && !m.IsFinal && m.IsNewSlot:
		sb.WriteString("virtual ")
	case m.IsVirtual && !m.IsFinal:
		sb.WriteString("override ")
	case m.IsVirtual && !m.IsNewSlot:
		sb.WriteString("sealed override ")
	}
	if m.IsPInvoke {
		sb.WriteString("extern ")
	}
	if m.RequiresUnsafe {
		sb.WriteString("unsafe ")
	}
	switch m.Name {
	case "op_Implicit":
		sb.WriteString("implicit ")
	case "op_Explicit":
		sb.WriteString("explicit ")
	}
	return sb.String()
}

func fieldModifiers(f *metadata.Field) string {
	var sb strings.Builder
	sb.WriteString(accessModifier(f.Access))
	if f.IsLiteral {
		sb.WriteString("const ")
	} else if f.IsStatic {
		sb.WriteString("static ")
	}
	if f.IsInitOnly {
		sb.WriteString("readonly ")
	}
	if f.Type.IsPointer() {
		sb.WriteString("unsafe ")
	}
	if fb, ok := f.FixedBuffer(); ok && fb.ElementField != nil {
		sb.WriteString("fixed ")
	}
	return sb.String()
}

func typeModifiers(t *metadata.Type) string {
	var sb strings.Builder
	sb.WriteString(accessModifier(t.Access))
	switch {
	case t.IsInterface:
		sb.WriteString("interface ")
	case t.IsEnum:
		sb.WriteString("enum ")
	case t.IsValueType:
		sb.WriteString("struct ")
	default:
		if t.IsAbstract && t.IsSealed {
			sb.WriteString("static ")
		} else if t.IsAbstract {
			sb.WriteString("abstract ")
		} else if t.IsSealed {
			sb.WriteString("sealed ")
		}
		sb.WriteString("class ")
	}
	return sb.String()
}

var operatorAliases = map[string]string{
	"op_Implicit":           "operator ",
	"op_Explicit":           "operator ",
	"op_Addition":           "operator +",
	"op_Subtraction":        "operator -",
	"op_Multiply":           "operator *",
	"op_Division":           "operator /",
	"op_Modulus":            "operator %",
	"op_ExclusiveOr":        "operator ^",
	"op_BitwiseAnd":         "operator &",
	"op_BitwiseOr":          "operator |",
	"op_LeftShift":          "operator <<",
	"op_RightShift":         "operator >>",
	"op_Equality":           "operator ==",
	"op_Inequality":         "operator !=",
	"op_GreaterThan":        "operator >",
	"op_LessThan":           "operator <",
	"op_GreaterThanOrEqual": "operator >=",
	"op_LessThanOrEqual":    "operator <=",
	"op_UnaryNegation":      "operator -",
	"op_UnaryPlus":          "operator +",
	"op_LogicalNot":         "operator !",
	"op_OnesComplement":     "operator ~",
	"op_Increment":          "operator ++",
	"op_Decrement":          "operator --",
	"op_True":               "operator true",
	"op_False":              "operator false",
}

// methodName returns the source name of a method, translating operator
// overloads to their operator syntax.
func methodName(m *metadata.Method) string {
	if alias, ok := operatorAliases[m.Name]; ok {
		return alias
	}
	return m.Name
}

func isConversionOperator(m *metadata.Method) bool {
	return m.Name == "op_Implicit" || m.Name == "op_Explicit"
}

func isFinalizer(m *metadata.Method) bool {
	return m.Name == "Finalize" && m.IsVirtual && !m.IsNewSlot && len(m.Parameters) == 0 &&
		(m.ReturnType == nil || m.ReturnType.FullName() == "System.Void")
}
