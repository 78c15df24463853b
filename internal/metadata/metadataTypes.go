package metadata

// Access is the member access level recorded in metadata. Values are ordered
// from the most restrictive to the most permissive, so they can be compared.
type Access int

const (
	AccessCompilerControlled Access = iota
	AccessPrivate
	AccessFamilyAndAssembly
	AccessAssembly
	AccessFamily
	AccessFamilyOrAssembly
	AccessPublic
)

type Variance int

const (
	VarianceNone Variance = iota
	VarianceCovariant
	VarianceContravariant
)

type ParameterModifier int

const (
	ParameterNone ParameterModifier = iota
	ParameterRef
	ParameterOut
	ParameterIn
)

// Char is a UTF-16 character constant, kept distinct from integer constants so
// it renders as a character literal.
type Char rune

type Assembly struct {
	Index      int
	FullName   string
	ImageName  string
	Attributes []*CustomAttribute
	Types      []*Type
}

// TypeRange returns the lowest and highest TypeDefIndex defined by the assembly.
// ok is false for an assembly without types.
func (a *Assembly) TypeRange() (first, last int, ok bool) {
	for i, t := range a.Types {
		if i == 0 || t.Index < first {
			first = t.Index
		}
		if i == 0 || t.Index > last {
			last = t.Index
		}
	}
	return first, last, len(a.Types) > 0
}

type Type struct {
	Namespace string
	Name      string
	Index     int
	Access    Access

	IsEnum         bool
	IsClass        bool
	IsInterface    bool
	IsValueType    bool
	IsAbstract     bool
	IsSealed       bool
	IsImport       bool
	IsSerializable bool
	IsNested       bool

	BaseType      *TypeRef
	Interfaces    []*TypeRef
	Assembly      *Assembly
	DeclaringType *Type

	Fields            []*Field
	Properties        []*Property
	Events            []*Event
	NestedTypes       []*Type
	Constructors      []*Method
	Methods           []*Method
	GenericParameters []*GenericParameter
	Attributes        []*CustomAttribute
}

// FullName returns the dotted CLR name, using '+' between nested types.
func (t *Type) FullName() string {
	if t.DeclaringType != nil {
		return t.DeclaringType.FullName() + "+" + t.Name
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Ref returns a named reference pointing at the type definition.
func (t *Type) Ref() *TypeRef {
	ref := &TypeRef{Kind: RefNamed, Namespace: t.Namespace, Name: t.Name, Definition: t}
	if t.DeclaringType != nil {
		ref.Namespace = ""
		ref.DeclaringType = t.DeclaringType.Ref()
	}
	for _, gp := range t.GenericParameters {
		ref.GenericArguments = append(ref.GenericArguments, GenericParameterRef(gp.Name))
	}
	return ref
}

// Tries to get the first declared method with given name
func (t *Type) TryGetMethod(name string) (method *Method, found bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// HasMarker reports whether the type carries an attribute with the given role.
func (t *Type) HasMarker(role MarkerRole) bool {
	return hasMarker(t.Attributes, role)
}

// EnumUnderlyingType is the type of the instance backing field of an enum.
func (t *Type) EnumUnderlyingType() *TypeRef {
	for _, f := range t.Fields {
		if !f.IsStatic && !f.IsLiteral {
			return f.Type
		}
	}
	return nil
}

type Field struct {
	Name            string
	Type            *TypeRef
	Offset          uint64
	Access          Access
	IsStatic        bool
	IsLiteral       bool
	IsInitOnly      bool
	IsNotSerialized bool
	HasDefaultValue bool
	DefaultValue    any
	Attributes      []*CustomAttribute
	DeclaringType   *Type
}

// FixedBuffer returns the fixed-buffer marker of the field, if any.
func (f *Field) FixedBuffer() (*CustomAttribute, bool) {
	for _, a := range f.Attributes {
		if a.Role == MarkerFixedBuffer {
			return a, true
		}
	}
	return nil, false
}

func (f *Field) HasMarker(role MarkerRole) bool {
	return hasMarker(f.Attributes, role)
}

type Property struct {
	Name          string
	Type          *TypeRef
	Getter        *Method
	Setter        *Method
	Attributes    []*CustomAttribute
	DeclaringType *Type
}

func (p *Property) HasMarker(role MarkerRole) bool {
	return hasMarker(p.Attributes, role)
}

type Event struct {
	Name          string
	HandlerType   *TypeRef
	Add           *Method
	Remove        *Method
	Raise         *Method
	Attributes    []*CustomAttribute
	DeclaringType *Type
}

func (e *Event) HasMarker(role MarkerRole) bool {
	return hasMarker(e.Attributes, role)
}

type Method struct {
	Name              string
	ReturnType        *TypeRef
	ReturnAttributes  []*CustomAttribute
	Parameters        []*Parameter
	Access            Access
	IsStatic          bool
	IsAbstract        bool
	IsVirtual         bool
	IsFinal           bool
	IsNewSlot         bool
	IsPInvoke         bool
	RequiresUnsafe    bool
	Address           uint64
	GenericParameters []*GenericParameter
	DeclaringType     *Type
	Attributes        []*CustomAttribute
}

func (m *Method) HasMarker(role MarkerRole) bool {
	return hasMarker(m.Attributes, role)
}

// IsConstructor reports whether the method is an instance or static constructor.
func (m *Method) IsConstructor() bool {
	return m.Name == ".ctor" || m.Name == ".cctor"
}

type Parameter struct {
	Name            string
	Type            *TypeRef
	Modifier        ParameterModifier
	HasDefaultValue bool
	DefaultValue    any
	Attributes      []*CustomAttribute
}

func (p *Parameter) HasMarker(role MarkerRole) bool {
	return hasMarker(p.Attributes, role)
}

type NamedArgument struct {
	Name  string
	Value string
}

type CustomAttribute struct {
	Type           *TypeRef
	Arguments      []string
	NamedArguments []NamedArgument
	Address        uint64
	ElementField   *Field
	Role           MarkerRole
}

// NewCustomAttribute creates an attribute instance and resolves its marker role.
func NewCustomAttribute(attributeType *TypeRef) *CustomAttribute {
	return &CustomAttribute{Type: attributeType, Role: ResolveMarkerRole(attributeType.FullName())}
}

type GenericParameter struct {
	Name               string
	Variance           Variance
	ReferenceType      bool
	ValueType          bool
	DefaultConstructor bool
	Constraints        []*TypeRef
	DeclaringType      *Type
	DeclaringMethod    *Method
}

func hasMarker(attributes []*CustomAttribute, role MarkerRole) bool {
	for _, a := range attributes {
		if a.Role == role {
			return true
		}
	}
	return false
}
