package generation

import "gocsdump/internal/metadata"

func systemRef(name string) *metadata.TypeRef {
	return metadata.NamedRef("System", name)
}

func newClass(namespace, name string, index int) *metadata.Type {
	return &metadata.Type{
		Namespace: namespace,
		Name:      name,
		Index:     index,
		Access:    metadata.AccessPublic,
		IsClass:   true,
	}
}

func newMethod(name string, returnType *metadata.TypeRef, params ...*metadata.Parameter) *metadata.Method {
	return &metadata.Method{Name: name, ReturnType: returnType, Parameters: params, Access: metadata.AccessPublic}
}

func newParam(name string, t *metadata.TypeRef) *metadata.Parameter {
	return &metadata.Parameter{Name: name, Type: t}
}

func newField(name string, t *metadata.TypeRef, offset uint64) *metadata.Field {
	return &metadata.Field{Name: name, Type: t, Offset: offset, Access: metadata.AccessPublic}
}

func newAttribute(namespace, name string, args ...string) *metadata.CustomAttribute {
	a := metadata.NewCustomAttribute(metadata.NamedRef(namespace, name))
	a.Arguments = args
	return a
}

func compilerGenerated() *metadata.CustomAttribute {
	return newAttribute("System.Runtime.CompilerServices", "CompilerGeneratedAttribute")
}

// addMethods attaches methods to t, sorting constructors from the rest.
func addMethods(t *metadata.Type, methods ...*metadata.Method) {
	for _, m := range methods {
		m.DeclaringType = t
		if m.IsConstructor() {
			t.Constructors = append(t.Constructors, m)
		} else {
			t.Methods = append(t.Methods, m)
		}
	}
}

func addFields(t *metadata.Type, fields ...*metadata.Field) {
	for _, f := range fields {
		f.DeclaringType = t
		t.Fields = append(t.Fields, f)
	}
}

func addNested(outer *metadata.Type, inner *metadata.Type) {
	inner.IsNested = true
	inner.DeclaringType = outer
	inner.Namespace = ""
	inner.Assembly = outer.Assembly
	outer.NestedTypes = append(outer.NestedTypes, inner)
}

func renderDeclaration(t *metadata.Type, options Options) string {
	c := newRenderContext(&options)
	return c.typeDeclaration(t, "")
}
