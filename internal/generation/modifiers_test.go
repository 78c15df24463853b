package generation

import (
	"gocsdump/internal/metadata"
	"testing"
)

func TestMethodModifiers(t *testing.T) {
	pointer := metadata.PointerRef(systemRef("Byte"))

	tests := []struct {
		name   string
		method *metadata.Method
		want   string
	}{
		{"public instance", &metadata.Method{Name: "Run", Access: metadata.AccessPublic}, "public "},
		{"private static", &metadata.Method{Name: "Run", Access: metadata.AccessPrivate, IsStatic: true}, "private static "},
		{"abstract", &metadata.Method{Name: "Run", Access: metadata.AccessFamily, IsAbstract: true, IsVirtual: true, IsNewSlot: true}, "protected abstract "},
		{"abstract override", &metadata.Method{Name: "Run", Access: metadata.AccessPublic, IsAbstract: true, IsVirtual: true}, "public abstract override "},
		{"virtual", &metadata.Method{Name: "Run", Access: metadata.AccessPublic, IsVirtual: true, IsNewSlot: true}, "public virtual "},
		{"override", &metadata.Method{Name: "Run", Access: metadata.AccessPublic, IsVirtual: true}, "public override "},
		{"sealed override", &metadata.Method{Name: "Run", Access: metadata.AccessPublic, IsVirtual: true, IsFinal: true}, "public sealed override "},
		{"interface implementation", &metadata.Method{Name: "Run", Access: metadata.AccessPublic, IsVirtual: true, IsFinal: true, IsNewSlot: true}, "public "},
		{"extern", &metadata.Method{Name: "MessageBoxW", Access: metadata.AccessPublic, IsStatic: true, IsPInvoke: true}, "public static extern "},
		{"unsafe", &metadata.Method{Name: "Read", Access: metadata.AccessAssembly, ReturnType: pointer, RequiresUnsafe: true}, "internal unsafe "},
		{"implicit", &metadata.Method{Name: "op_Implicit", Access: metadata.AccessPublic, IsStatic: true}, "public static implicit "},
		{"explicit", &metadata.Method{Name: "op_Explicit", Access: metadata.AccessPublic, IsStatic: true}, "public static explicit "},
		{"static constructor", &metadata.Method{Name: ".cctor", Access: metadata.AccessPrivate, IsStatic: true}, "static "},
		{"compiler controlled", &metadata.Method{Name: "Run"}, ""},
		{"protected internal", &metadata.Method{Name: "Run", Access: metadata.AccessFamilyOrAssembly}, "protected internal "},
		{"private protected", &metadata.Method{Name: "Run", Access: metadata.AccessFamilyAndAssembly}, "private protected "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := methodModifiers(tt.method); got != tt.want {
				t.Errorf("methodModifiers() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterfaceMembersHaveNoModifiers(t *testing.T) {
	iface := &metadata.Type{Name: "IRunner", IsInterface: true, IsAbstract: true}
	m := &metadata.Method{Name: "Run", Access: metadata.AccessPublic, IsAbstract: true, IsVirtual: true, IsNewSlot: true, DeclaringType: iface}
	if got := methodModifiers(m); got != "" {
		t.Errorf("methodModifiers() = %q, want empty", got)
	}
}

func TestFieldModifiers(t *testing.T) {
	fixedBuffer := newAttribute("System.Runtime.CompilerServices", "FixedBufferAttribute")
	fixedBuffer.ElementField = newField("FixedElementField", systemRef("Byte"), 0)

	tests := []struct {
		name  string
		field *metadata.Field
		want  string
	}{
		{"instance", &metadata.Field{Access: metadata.AccessPrivate}, "private "},
		{"const", &metadata.Field{Access: metadata.AccessPublic, IsLiteral: true, IsStatic: true}, "public const "},
		{"static readonly", &metadata.Field{Access: metadata.AccessPublic, IsStatic: true, IsInitOnly: true}, "public static readonly "},
		{"pointer", &metadata.Field{Access: metadata.AccessPublic, Type: metadata.PointerRef(systemRef("Int32"))}, "public unsafe "},
		{"fixed buffer", &metadata.Field{Access: metadata.AccessPublic, Attributes: []*metadata.CustomAttribute{fixedBuffer}}, "public fixed "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fieldModifiers(tt.field); got != tt.want {
				t.Errorf("fieldModifiers() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeModifiers(t *testing.T) {
	tests := []struct {
		name string
		typ  *metadata.Type
		want string
	}{
		{"class", &metadata.Type{Access: metadata.AccessPublic, IsClass: true}, "public class "},
		{"static class", &metadata.Type{Access: metadata.AccessPublic, IsClass: true, IsAbstract: true, IsSealed: true}, "public static class "},
		{"abstract class", &metadata.Type{Access: metadata.AccessAssembly, IsClass: true, IsAbstract: true}, "internal abstract class "},
		{"sealed class", &metadata.Type{Access: metadata.AccessPublic, IsClass: true, IsSealed: true}, "public sealed class "},
		{"struct", &metadata.Type{Access: metadata.AccessPublic, IsValueType: true, IsSealed: true}, "public struct "},
		{"enum", &metadata.Type{Access: metadata.AccessPublic, IsEnum: true, IsValueType: true, IsSealed: true}, "public enum "},
		{"interface", &metadata.Type{Access: metadata.AccessPublic, IsInterface: true, IsAbstract: true}, "public interface "},
		{"nested private", &metadata.Type{Access: metadata.AccessPrivate, IsClass: true, IsNested: true}, "private class "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := typeModifiers(tt.typ); got != tt.want {
				t.Errorf("typeModifiers() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMethodName(t *testing.T) {
	tests := map[string]string{
		"op_Addition":  "operator +",
		"op_Equality":  "operator ==",
		"op_Implicit":  "operator ",
		"op_LessThan":  "operator <",
		"op_Something": "op_Something",
		"Update":       "Update",
	}
	for name, want := range tests {
		if got := methodName(&metadata.Method{Name: name}); got != want {
			t.Errorf("methodName(%s) = %q, want %q", name, got, want)
		}
	}
}
