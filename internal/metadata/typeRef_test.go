package metadata

import (
	"reflect"
	"testing"
)

func TestTypeRefFullName(t *testing.T) {
	tests := []struct {
		name string
		ref  *TypeRef
		want string
	}{
		{"nil", nil, ""},
		{"named", NamedRef("System", "String"), "System.String"},
		{"global", NamedRef("", "Bootstrap"), "Bootstrap"},
		{"generic", NamedRef("System.Collections.Generic", "List`1", NamedRef("System", "Int32")), "System.Collections.Generic.List`1"},
		{"nested", NestedRef(NamedRef("Game", "Outer"), "Inner"), "Game.Outer+Inner"},
		{"array", ArrayRef(NamedRef("System", "Byte"), 2), "System.Byte[,]"},
		{"pointer", PointerRef(NamedRef("System", "Void")), "System.Void*"},
		{"by-ref", ByRefRef(NamedRef("System", "Int32")), "System.Int32&"},
		{"generic parameter", GenericParameterRef("T"), "T"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.FullName(); got != tt.want {
				t.Errorf("FullName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArrayRefRank(t *testing.T) {
	if got := ArrayRef(NamedRef("System", "Int32"), 0).ArrayRank; got != 1 {
		t.Errorf("rank = %d, want 1", got)
	}
}

func TestIsPointer(t *testing.T) {
	tests := []struct {
		ref  *TypeRef
		want bool
	}{
		{nil, false},
		{NamedRef("System", "IntPtr"), false},
		{PointerRef(NamedRef("System", "Byte")), true},
		{ArrayRef(PointerRef(NamedRef("System", "Byte")), 1), true},
		{ByRefRef(NamedRef("System", "Byte")), false},
	}
	for _, tt := range tests {
		if got := tt.ref.IsPointer(); got != tt.want {
			t.Errorf("IsPointer(%s) = %v, want %v", tt.ref.FullName(), got, tt.want)
		}
	}
}

func TestWalk(t *testing.T) {
	ref := ArrayRef(NamedRef("System.Collections.Generic", "Dictionary`2",
		NamedRef("System", "String"),
		NestedRef(NamedRef("Game", "Outer"), "Inner")), 1)

	var visited []string
	ref.Walk(func(r *TypeRef) {
		if r.Kind == RefNamed {
			visited = append(visited, r.FullName())
		}
	})
	want := []string{"System.Collections.Generic.Dictionary`2", "System.String", "Game.Outer+Inner", "Game.Outer"}
	if !reflect.DeepEqual(visited, want) {
		t.Errorf("Walk visited %v, want %v", visited, want)
	}

	var nilRef *TypeRef
	nilRef.Walk(func(*TypeRef) { t.Error("nil reference visited") })
}

func TestStripArity(t *testing.T) {
	tests := map[string]string{
		"List`1":       "List",
		"Dictionary`2": "Dictionary",
		"Plain":        "Plain",
		"Odd`name":     "Odd`name",
		"Tuple`10":     "Tuple",
	}
	for in, want := range tests {
		if got := StripArity(in); got != want {
			t.Errorf("StripArity(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestDeclaringFromDefinition(t *testing.T) {
	outer := &Type{Namespace: "Game", Name: "Player"}
	inner := &Type{Name: "State", DeclaringType: outer, IsNested: true}

	byDefinition := &TypeRef{Kind: RefNamed, Name: "State", Definition: inner}
	if got := byDefinition.Declaring().FullName(); got != "Game.Player" {
		t.Errorf("Declaring() = %s, want Game.Player", got)
	}
	if got := byDefinition.RootNamespace(); got != "Game" {
		t.Errorf("RootNamespace() = %q, want Game", got)
	}

	if NamedRef("System", "String").Declaring() != nil {
		t.Error("top-level reference has a declaring type")
	}
	if got := (&TypeRef{Kind: RefNamed, Name: "Player", Definition: outer}).Declaring(); got != nil {
		t.Errorf("Declaring() = %v for a top-level definition", got)
	}
}
