package metadata

import (
	"strconv"
	"strings"
)

type RefKind int

const (
	RefNamed RefKind = iota
	RefArray
	RefPointer
	RefByRef
	RefGenericParameter
)

// TypeRef is a type as it appears in a signature: a named (possibly generic
// instance) type, an array, pointer or by-ref of another type, or a generic
// parameter.
type TypeRef struct {
	Kind             RefKind
	Namespace        string
	Name             string
	DeclaringType    *TypeRef
	GenericArguments []*TypeRef
	ElementType      *TypeRef
	ArrayRank        int
	Definition       *Type
}

func NamedRef(namespace, name string, genericArguments ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: RefNamed, Namespace: namespace, Name: name, GenericArguments: genericArguments}
}

func NestedRef(declaringType *TypeRef, name string) *TypeRef {
	return &TypeRef{Kind: RefNamed, Name: name, DeclaringType: declaringType}
}

func ArrayRef(element *TypeRef, rank int) *TypeRef {
	if rank < 1 {
		rank = 1
	}
	return &TypeRef{Kind: RefArray, ElementType: element, ArrayRank: rank}
}

func PointerRef(element *TypeRef) *TypeRef {
	return &TypeRef{Kind: RefPointer, ElementType: element}
}

func ByRefRef(element *TypeRef) *TypeRef {
	return &TypeRef{Kind: RefByRef, ElementType: element}
}

func GenericParameterRef(name string) *TypeRef {
	return &TypeRef{Kind: RefGenericParameter, Name: name}
}

// FullName returns the CLR name of the referenced type without generic
// arguments, e.g. "System.Collections.Generic.List`1" or "Outer+Inner".
func (r *TypeRef) FullName() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case RefArray:
		return r.ElementType.FullName() + "[" + strings.Repeat(",", r.ArrayRank-1) + "]"
	case RefPointer:
		return r.ElementType.FullName() + "*"
	case RefByRef:
		return r.ElementType.FullName() + "&"
	case RefGenericParameter:
		return r.Name
	}
	if r.DeclaringType != nil {
		return r.DeclaringType.FullName() + "+" + r.Name
	}
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "." + r.Name
}

// Declaring returns the reference to the enclosing type. Snapshots may refer
// to a nested type by definition only, in which case the enclosing type comes
// from the definition.
func (r *TypeRef) Declaring() *TypeRef {
	if r.DeclaringType != nil {
		return r.DeclaringType
	}
	if r.Definition != nil && r.Definition.DeclaringType != nil {
		return r.Definition.DeclaringType.Ref()
	}
	return nil
}

// RootNamespace returns the namespace of the outermost declaring type.
func (r *TypeRef) RootNamespace() string {
	for declaring := r.Declaring(); declaring != nil; declaring = r.Declaring() {
		r = declaring
	}
	return r.Namespace
}

// IsPointer reports whether the reference contains a pointer anywhere in its
// element chain, which requires an unsafe context.
func (r *TypeRef) IsPointer() bool {
	for ; r != nil; r = r.ElementType {
		if r.Kind == RefPointer {
			return true
		}
	}
	return false
}

// Walk calls fn for the reference and every reference nested in it.
func (r *TypeRef) Walk(fn func(*TypeRef)) {
	if r == nil {
		return
	}
	fn(r)
	r.DeclaringType.Walk(fn)
	r.ElementType.Walk(fn)
	for _, arg := range r.GenericArguments {
		arg.Walk(fn)
	}
}

// StripArity removes a generic arity suffix such as "`2" from a type name.
func StripArity(name string) string {
	i := strings.LastIndexByte(name, '`')
	if i < 0 {
		return name
	}
	if _, err := strconv.Atoi(name[i+1:]); err != nil {
		return name
	}
	return name[:i]
}
