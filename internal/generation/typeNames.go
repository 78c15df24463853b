package generation

import (
	"fmt"
	"gocsdump/internal/metadata"
	"math"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf16"
)

var keywordAliases = map[string]string{
	"System.Object":  "object",
	"System.String":  "string",
	"System.Void":    "void",
	"System.Boolean": "bool",
	"System.Char":    "char",
	"System.SByte":   "sbyte",
	"System.Byte":    "byte",
	"System.Int16":   "short",
	"System.UInt16":  "ushort",
	"System.Int32":   "int",
	"System.UInt32":  "uint",
	"System.Int64":   "long",
	"System.UInt64":  "ulong",
	"System.Single":  "float",
	"System.Double":  "double",
	"System.Decimal": "decimal",
}

const nullableName = "System.Nullable`1"

// isLanguageKeyword reports whether the reference renders without needing a
// using directive.
func isLanguageKeyword(r *metadata.TypeRef) bool {
	if r.Kind != metadata.RefNamed || r.DeclaringType != nil {
		return false
	}
	if _, ok := keywordAliases[r.FullName()]; ok && len(r.GenericArguments) == 0 {
		return true
	}
	return r.FullName() == nullableName && len(r.GenericArguments) == 1
}

// typeName renders a type reference the way it is written in source.
func typeName(r *metadata.TypeRef) string {
	if r == nil {
		return "void"
	}
	switch r.Kind {
	case metadata.RefArray:
		return typeName(r.ElementType) + "[" + strings.Repeat(",", r.ArrayRank-1) + "]"
	case metadata.RefPointer:
		return typeName(r.ElementType) + "*"
	case metadata.RefByRef:
		return typeName(r.ElementType)
	case metadata.RefGenericParameter:
		return r.Name
	}

	if isLanguageKeyword(r) {
		if r.FullName() == nullableName {
			return typeName(r.GenericArguments[0]) + "?"
		}
		return keywordAliases[r.FullName()]
	}

	name := metadata.StripArity(r.Name)
	if declaring := r.Declaring(); declaring != nil {
		name = typeName(declaring) + "." + name
	}
	if len(r.GenericArguments) > 0 {
		args := make([]string, len(r.GenericArguments))
		for i, arg := range r.GenericArguments {
			args[i] = typeName(arg)
		}
		name += "<" + strings.Join(args, ", ") + ">"
	}
	return name
}

func returnTypeName(r *metadata.TypeRef) string {
	if r != nil && r.Kind == metadata.RefByRef {
		return "ref " + typeName(r.ElementType)
	}
	return typeName(r)
}

// declarationName renders a type's own name with its generic parameter list.
func declarationName(t *metadata.Type) string {
	name := metadata.StripArity(t.Name)
	if len(t.GenericParameters) == 0 {
		return name
	}
	params := make([]string, len(t.GenericParameters))
	for i, gp := range t.GenericParameters {
		switch gp.Variance {
		case metadata.VarianceCovariant:
			params[i] = "out " + gp.Name
		case metadata.VarianceContravariant:
			params[i] = "in " + gp.Name
		default:
			params[i] = gp.Name
		}
	}
	return name + "<" + strings.Join(params, ", ") + ">"
}

func genericSuffix(params []*metadata.GenericParameter) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, len(params))
	for i, gp := range params {
		names[i] = gp.Name
	}
	return "<" + strings.Join(names, ", ") + ">"
}

func addressString(address uint64) string {
	return fmt.Sprintf("0x%08X", address)
}

// literal renders a constant value from metadata as a source literal.
func literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case string:
		return `"` + escape(string(v), '"') + `"`
	case metadata.Char:
		// Lone surrogates have no UTF-8 form.
		if utf16.IsSurrogate(rune(v)) {
			return fmt.Sprintf(`'\u%04X'`, rune(v))
		}
		return "'" + escape(string(rune(v)), '\'') + "'"
	case float32:
		switch {
		case math.IsNaN(float64(v)):
			return "float.NaN"
		case math.IsInf(float64(v), 1):
			return "float.PositiveInfinity"
		case math.IsInf(float64(v), -1):
			return "float.NegativeInfinity"
		}
		return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f"
	case float64:
		switch {
		case math.IsNaN(v):
			return "double.NaN"
		case math.IsInf(v, 1):
			return "double.PositiveInfinity"
		case math.IsInf(v, -1):
			return "double.NegativeInfinity"
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if n, ok := integerValue(value); ok {
		return n.String()
	}
	return fmt.Sprint(value)
}

func escape(s string, quote rune) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case quote:
			sb.WriteRune('\\')
			sb.WriteRune(r)
		case 0:
			sb.WriteString(`\0`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\v':
			sb.WriteString(`\v`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\u%04X`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// integerValue converts any Go integer to an exact big integer so signed and
// unsigned enum values compare correctly.
func integerValue(value any) (*big.Int, bool) {
	switch v := value.(type) {
	case int:
		return big.NewInt(int64(v)), true
	case int8:
		return big.NewInt(int64(v)), true
	case int16:
		return big.NewInt(int64(v)), true
	case int32:
		return big.NewInt(int64(v)), true
	case int64:
		return big.NewInt(v), true
	case uint:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), true
	case uint64:
		return new(big.Int).SetUint64(v), true
	case metadata.Char:
		return big.NewInt(int64(v)), true
	}
	return nil, false
}
