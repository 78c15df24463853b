package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-version"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gocsdump.metadata")

var (
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
	ErrUnknownType        = errors.New("unknown type index")
)

// SupportedVersions is the range of snapshot document versions this build reads.
const SupportedVersions = ">= 1.0, < 2.0"

// Graph is a fully linked metadata graph. Types lists every type, nested ones
// included, in definition order.
type Graph struct {
	Assemblies []*Assembly
	Types      []*Type
}

// Document is the serialized form of a metadata graph. Types refer to each
// other by TypeDefIndex, members refer to methods by position in their type's
// method list.
type Document struct {
	Version    string          `json:"version"`
	Assemblies []AssemblyEntry `json:"assemblies"`
	Types      []TypeEntry     `json:"types"`
}

type AssemblyEntry struct {
	Index      int              `json:"index"`
	FullName   string           `json:"fullName"`
	ImageName  string           `json:"imageName"`
	Attributes []AttributeEntry `json:"attributes,omitempty"`
}

type TypeEntry struct {
	Index         int    `json:"index"`
	Assembly      int    `json:"assembly"`
	Namespace     string `json:"namespace,omitempty"`
	Name          string `json:"name"`
	Access        string `json:"access,omitempty"`
	DeclaringType *int   `json:"declaringType,omitempty"`

	Enum         bool `json:"enum,omitempty"`
	Class        bool `json:"class,omitempty"`
	Interface    bool `json:"interface,omitempty"`
	ValueType    bool `json:"valueType,omitempty"`
	Abstract     bool `json:"abstract,omitempty"`
	Sealed       bool `json:"sealed,omitempty"`
	Import       bool `json:"import,omitempty"`
	Serializable bool `json:"serializable,omitempty"`

	BaseType          *TypeRefEntry           `json:"baseType,omitempty"`
	Interfaces        []TypeRefEntry          `json:"interfaces,omitempty"`
	Fields            []FieldEntry            `json:"fields,omitempty"`
	Properties        []PropertyEntry         `json:"properties,omitempty"`
	Events            []EventEntry            `json:"events,omitempty"`
	Methods           []MethodEntry           `json:"methods,omitempty"`
	GenericParameters []GenericParameterEntry `json:"genericParameters,omitempty"`
	Attributes        []AttributeEntry        `json:"attributes,omitempty"`
}

// TypeRefEntry kinds are "named" (the default), "array", "pointer", "byref"
// and "generic".
type TypeRefEntry struct {
	Kind       string         `json:"kind,omitempty"`
	Namespace  string         `json:"namespace,omitempty"`
	Name       string         `json:"name,omitempty"`
	Declaring  *TypeRefEntry  `json:"declaring,omitempty"`
	Arguments  []TypeRefEntry `json:"arguments,omitempty"`
	Element    *TypeRefEntry  `json:"element,omitempty"`
	Rank       int            `json:"rank,omitempty"`
	Definition *int           `json:"definition,omitempty"`
}

// ConstantEntry is a typed constant. Kind is one of bool, char, i1, u1, i2, u2,
// i4, u4, i8, u8, r4, r8, string and null; chars carry their UTF-16 code.
type ConstantEntry struct {
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}

type FieldEntry struct {
	Name          string           `json:"name"`
	Type          TypeRefEntry     `json:"type"`
	Offset        uint64           `json:"offset,omitempty"`
	Access        string           `json:"access,omitempty"`
	Static        bool             `json:"static,omitempty"`
	Literal       bool             `json:"literal,omitempty"`
	InitOnly      bool             `json:"initOnly,omitempty"`
	NotSerialized bool             `json:"notSerialized,omitempty"`
	Default       *ConstantEntry   `json:"default,omitempty"`
	Attributes    []AttributeEntry `json:"attributes,omitempty"`
}

type PropertyEntry struct {
	Name       string           `json:"name"`
	Type       TypeRefEntry     `json:"type"`
	Getter     *int             `json:"getter,omitempty"`
	Setter     *int             `json:"setter,omitempty"`
	Attributes []AttributeEntry `json:"attributes,omitempty"`
}

type EventEntry struct {
	Name       string           `json:"name"`
	Type       TypeRefEntry     `json:"type"`
	Add        *int             `json:"add,omitempty"`
	Remove     *int             `json:"remove,omitempty"`
	Raise      *int             `json:"raise,omitempty"`
	Attributes []AttributeEntry `json:"attributes,omitempty"`
}

type MethodEntry struct {
	Name              string                  `json:"name"`
	ReturnType        *TypeRefEntry           `json:"returnType,omitempty"`
	ReturnAttributes  []AttributeEntry        `json:"returnAttributes,omitempty"`
	Parameters        []ParameterEntry        `json:"parameters,omitempty"`
	Access            string                  `json:"access,omitempty"`
	Static            bool                    `json:"static,omitempty"`
	Abstract          bool                    `json:"abstract,omitempty"`
	Virtual           bool                    `json:"virtual,omitempty"`
	Final             bool                    `json:"final,omitempty"`
	NewSlot           bool                    `json:"newSlot,omitempty"`
	PInvoke           bool                    `json:"pinvoke,omitempty"`
	Unsafe            bool                    `json:"unsafe,omitempty"`
	Address           uint64                  `json:"address,omitempty"`
	GenericParameters []GenericParameterEntry `json:"genericParameters,omitempty"`
	Attributes        []AttributeEntry        `json:"attributes,omitempty"`
}

type ParameterEntry struct {
	Name       string           `json:"name"`
	Type       TypeRefEntry     `json:"type"`
	Modifier   string           `json:"modifier,omitempty"`
	Default    *ConstantEntry   `json:"default,omitempty"`
	Attributes []AttributeEntry `json:"attributes,omitempty"`
}

type GenericParameterEntry struct {
	Name        string         `json:"name"`
	Variance    string         `json:"variance,omitempty"`
	Class       bool           `json:"class,omitempty"`
	Struct      bool           `json:"struct,omitempty"`
	New         bool           `json:"new,omitempty"`
	Constraints []TypeRefEntry `json:"constraints,omitempty"`
}

type AttributeEntry struct {
	Type         TypeRefEntry    `json:"type"`
	Arguments    []string        `json:"arguments,omitempty"`
	Named        []NamedArgument `json:"named,omitempty"`
	Address      uint64          `json:"address,omitempty"`
	ElementField *FieldEntry     `json:"elementField,omitempty"`
}

var accessNames = map[string]Access{
	"":                   AccessCompilerControlled,
	"private":            AccessPrivate,
	"private protected":  AccessFamilyAndAssembly,
	"internal":           AccessAssembly,
	"protected":          AccessFamily,
	"protected internal": AccessFamilyOrAssembly,
	"public":             AccessPublic,
}

// LoadSnapshot reads a snapshot document from path. Files ending in .json are
// read as JSON, everything else as CBOR.
func LoadSnapshot(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var graph *Graph
	if strings.EqualFold(filepath.Ext(path), ".json") {
		graph, err = DecodeJSON(data)
	} else {
		graph, err = Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Infof("loaded %d types in %d assemblies from %s", len(graph.Types), len(graph.Assemblies), path)
	return graph, nil
}

// Decode links a CBOR encoded snapshot document.
func Decode(data []byte) (*Graph, error) {
	var doc Document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return doc.Link()
}

// DecodeJSON links a JSON encoded snapshot document.
func DecodeJSON(data []byte) (*Graph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return doc.Link()
}

// EncodeSnapshot encodes a document as canonical CBOR, so equal documents
// always produce identical bytes.
func EncodeSnapshot(doc *Document) ([]byte, error) {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(doc)
}

func checkVersion(raw string) error {
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, raw)
	}
	constraints, err := version.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !constraints.Check(v) {
		return fmt.Errorf("%w: %s is not %s", ErrUnsupportedVersion, v, SupportedVersions)
	}
	return nil
}

type linker struct {
	types map[int]*Type
}

// Link checks the document version and builds the linked graph.
func (doc *Document) Link() (*Graph, error) {
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}

	l := linker{types: make(map[int]*Type, len(doc.Types))}
	graph := &Graph{}
	assemblies := make(map[int]*Assembly, len(doc.Assemblies))
	for _, entry := range doc.Assemblies {
		a := &Assembly{Index: entry.Index, FullName: entry.FullName, ImageName: entry.ImageName}
		assemblies[entry.Index] = a
		graph.Assemblies = append(graph.Assemblies, a)
	}

	for _, entry := range doc.Types {
		if _, ok := l.types[entry.Index]; ok {
			return nil, fmt.Errorf("type %d defined twice", entry.Index)
		}
		access, err := parseAccess(entry.Access)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", entry.Name, err)
		}
		t := &Type{
			Namespace:      entry.Namespace,
			Name:           entry.Name,
			Index:          entry.Index,
			Access:         access,
			IsEnum:         entry.Enum,
			IsClass:        entry.Class,
			IsInterface:    entry.Interface,
			IsValueType:    entry.ValueType,
			IsAbstract:     entry.Abstract,
			IsSealed:       entry.Sealed,
			IsImport:       entry.Import,
			IsSerializable: entry.Serializable,
			IsNested:       entry.DeclaringType != nil,
		}
		if a, ok := assemblies[entry.Assembly]; ok {
			t.Assembly = a
			a.Types = append(a.Types, t)
		}
		l.types[entry.Index] = t
		graph.Types = append(graph.Types, t)
	}

	for _, entry := range doc.Assemblies {
		attributes, err := l.attributes(entry.Attributes)
		if err != nil {
			return nil, fmt.Errorf("assembly %s: %w", entry.FullName, err)
		}
		assemblies[entry.Index].Attributes = attributes
	}
	for i := range doc.Types {
		if err := l.linkType(&doc.Types[i]); err != nil {
			return nil, fmt.Errorf("type %s: %w", doc.Types[i].Name, err)
		}
	}
	return graph, nil
}

func (l *linker) linkType(entry *TypeEntry) error {
	t := l.types[entry.Index]
	var err error

	if entry.DeclaringType != nil {
		declaring, ok := l.types[*entry.DeclaringType]
		if !ok {
			return fmt.Errorf("declaring type: %w %d", ErrUnknownType, *entry.DeclaringType)
		}
		t.DeclaringType = declaring
		declaring.NestedTypes = append(declaring.NestedTypes, t)
	}
	if entry.BaseType != nil {
		if t.BaseType, err = l.typeRef(entry.BaseType); err != nil {
			return err
		}
	}
	if t.Interfaces, err = l.typeRefs(entry.Interfaces); err != nil {
		return err
	}
	if t.Attributes, err = l.attributes(entry.Attributes); err != nil {
		return err
	}
	if t.GenericParameters, err = l.genericParameters(entry.GenericParameters); err != nil {
		return err
	}
	for _, gp := range t.GenericParameters {
		gp.DeclaringType = t
	}

	for i := range entry.Fields {
		f, err := l.field(&entry.Fields[i])
		if err != nil {
			return err
		}
		f.DeclaringType = t
		t.Fields = append(t.Fields, f)
	}

	methods := make([]*Method, len(entry.Methods))
	for i := range entry.Methods {
		m, err := l.method(&entry.Methods[i])
		if err != nil {
			return fmt.Errorf("method %s: %w", entry.Methods[i].Name, err)
		}
		m.DeclaringType = t
		methods[i] = m
		if m.IsConstructor() {
			t.Constructors = append(t.Constructors, m)
		} else {
			t.Methods = append(t.Methods, m)
		}
	}
	methodAt := func(i *int) (*Method, error) {
		if i == nil {
			return nil, nil
		}
		if *i < 0 || *i >= len(methods) {
			return nil, fmt.Errorf("method index %d out of range", *i)
		}
		return methods[*i], nil
	}

	for _, pe := range entry.Properties {
		p := &Property{Name: pe.Name, DeclaringType: t}
		if p.Type, err = l.typeRef(&pe.Type); err != nil {
			return err
		}
		if p.Getter, err = methodAt(pe.Getter); err != nil {
			return fmt.Errorf("property %s: %w", pe.Name, err)
		}
		if p.Setter, err = methodAt(pe.Setter); err != nil {
			return fmt.Errorf("property %s: %w", pe.Name, err)
		}
		if p.Attributes, err = l.attributes(pe.Attributes); err != nil {
			return err
		}
		t.Properties = append(t.Properties, p)
	}
	for _, ee := range entry.Events {
		e := &Event{Name: ee.Name, DeclaringType: t}
		if e.HandlerType, err = l.typeRef(&ee.Type); err != nil {
			return err
		}
		for _, accessor := range []struct {
			index  *int
			target **Method
		}{{ee.Add, &e.Add}, {ee.Remove, &e.Remove}, {ee.Raise, &e.Raise}} {
			if *accessor.target, err = methodAt(accessor.index); err != nil {
				return fmt.Errorf("event %s: %w", ee.Name, err)
			}
		}
		if e.Attributes, err = l.attributes(ee.Attributes); err != nil {
			return err
		}
		t.Events = append(t.Events, e)
	}
	return nil
}

func (l *linker) typeRef(entry *TypeRefEntry) (*TypeRef, error) {
	var r *TypeRef
	switch entry.Kind {
	case "", "named":
		r = &TypeRef{Kind: RefNamed, Namespace: entry.Namespace, Name: entry.Name}
		if entry.Declaring != nil {
			declaring, err := l.typeRef(entry.Declaring)
			if err != nil {
				return nil, err
			}
			r.DeclaringType = declaring
		}
		args, err := l.typeRefs(entry.Arguments)
		if err != nil {
			return nil, err
		}
		r.GenericArguments = args
		if entry.Definition != nil {
			definition, ok := l.types[*entry.Definition]
			if !ok {
				return nil, fmt.Errorf("%s: %w %d", entry.Name, ErrUnknownType, *entry.Definition)
			}
			r.Definition = definition
		}
		return r, nil
	case "generic":
		return GenericParameterRef(entry.Name), nil
	case "array", "pointer", "byref":
		if entry.Element == nil {
			return nil, fmt.Errorf("%s reference without element type", entry.Kind)
		}
		element, err := l.typeRef(entry.Element)
		if err != nil {
			return nil, err
		}
		switch entry.Kind {
		case "array":
			return ArrayRef(element, entry.Rank), nil
		case "pointer":
			return PointerRef(element), nil
		}
		return ByRefRef(element), nil
	}
	return nil, fmt.Errorf("unknown type reference kind %q", entry.Kind)
}

func (l *linker) typeRefs(entries []TypeRefEntry) ([]*TypeRef, error) {
	var refs []*TypeRef
	for i := range entries {
		r, err := l.typeRef(&entries[i])
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

func (l *linker) attributes(entries []AttributeEntry) ([]*CustomAttribute, error) {
	var attributes []*CustomAttribute
	for i := range entries {
		entry := &entries[i]
		attributeType, err := l.typeRef(&entry.Type)
		if err != nil {
			return nil, err
		}
		a := NewCustomAttribute(attributeType)
		a.Arguments = entry.Arguments
		a.NamedArguments = entry.Named
		a.Address = entry.Address
		if entry.ElementField != nil {
			if a.ElementField, err = l.field(entry.ElementField); err != nil {
				return nil, err
			}
		}
		attributes = append(attributes, a)
	}
	return attributes, nil
}

func (l *linker) field(entry *FieldEntry) (*Field, error) {
	access, err := parseAccess(entry.Access)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", entry.Name, err)
	}
	f := &Field{
		Name:            entry.Name,
		Offset:          entry.Offset,
		Access:          access,
		IsStatic:        entry.Static,
		IsLiteral:       entry.Literal,
		IsInitOnly:      entry.InitOnly,
		IsNotSerialized: entry.NotSerialized,
	}
	if f.Type, err = l.typeRef(&entry.Type); err != nil {
		return nil, err
	}
	if entry.Default != nil {
		f.HasDefaultValue = true
		if f.DefaultValue, err = entry.Default.value(); err != nil {
			return nil, fmt.Errorf("field %s: %w", entry.Name, err)
		}
	}
	if f.Attributes, err = l.attributes(entry.Attributes); err != nil {
		return nil, err
	}
	return f, nil
}

func (l *linker) method(entry *MethodEntry) (*Method, error) {
	access, err := parseAccess(entry.Access)
	if err != nil {
		return nil, err
	}
	m := &Method{
		Name:           entry.Name,
		Access:         access,
		IsStatic:       entry.Static,
		IsAbstract:     entry.Abstract,
		IsVirtual:      entry.Virtual,
		IsFinal:        entry.Final,
		IsNewSlot:      entry.NewSlot,
		IsPInvoke:      entry.PInvoke,
		RequiresUnsafe: entry.Unsafe,
		Address:        entry.Address,
	}
	if entry.ReturnType != nil {
		if m.ReturnType, err = l.typeRef(entry.ReturnType); err != nil {
			return nil, err
		}
	}
	if m.ReturnAttributes, err = l.attributes(entry.ReturnAttributes); err != nil {
		return nil, err
	}
	if m.Attributes, err = l.attributes(entry.Attributes); err != nil {
		return nil, err
	}
	if m.GenericParameters, err = l.genericParameters(entry.GenericParameters); err != nil {
		return nil, err
	}
	for _, gp := range m.GenericParameters {
		gp.DeclaringMethod = m
	}

	m.RequiresUnsafe = m.RequiresUnsafe || m.ReturnType.IsPointer()
	for _, pe := range entry.Parameters {
		p := &Parameter{Name: pe.Name}
		if p.Type, err = l.typeRef(&pe.Type); err != nil {
			return nil, err
		}
		if p.Modifier, err = parseModifier(pe.Modifier); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", pe.Name, err)
		}
		if pe.Default != nil {
			p.HasDefaultValue = true
			if p.DefaultValue, err = pe.Default.value(); err != nil {
				return nil, fmt.Errorf("parameter %s: %w", pe.Name, err)
			}
		}
		if p.Attributes, err = l.attributes(pe.Attributes); err != nil {
			return nil, err
		}
		m.RequiresUnsafe = m.RequiresUnsafe || p.Type.IsPointer()
		m.Parameters = append(m.Parameters, p)
	}
	return m, nil
}

func (l *linker) genericParameters(entries []GenericParameterEntry) ([]*GenericParameter, error) {
	var params []*GenericParameter
	for _, entry := range entries {
		gp := &GenericParameter{
			Name:               entry.Name,
			ReferenceType:      entry.Class,
			ValueType:          entry.Struct,
			DefaultConstructor: entry.New,
		}
		switch entry.Variance {
		case "":
		case "out":
			gp.Variance = VarianceCovariant
		case "in":
			gp.Variance = VarianceContravariant
		default:
			return nil, fmt.Errorf("generic parameter %s: unknown variance %q", entry.Name, entry.Variance)
		}
		constraints, err := l.typeRefs(entry.Constraints)
		if err != nil {
			return nil, err
		}
		gp.Constraints = constraints
		params = append(params, gp)
	}
	return params, nil
}

func parseAccess(name string) (Access, error) {
	access, ok := accessNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown access %q", name)
	}
	return access, nil
}

func parseModifier(name string) (ParameterModifier, error) {
	switch name {
	case "":
		return ParameterNone, nil
	case "ref":
		return ParameterRef, nil
	case "out":
		return ParameterOut, nil
	case "in":
		return ParameterIn, nil
	}
	return 0, fmt.Errorf("unknown parameter modifier %q", name)
}

// value converts the constant to the Go type the renderers expect.
func (c *ConstantEntry) value() (any, error) {
	switch c.Kind {
	case "null":
		return nil, nil
	case "string":
		return c.Value, nil
	case "bool":
		return strconv.ParseBool(c.Value)
	case "char":
		v, err := strconv.ParseUint(c.Value, 0, 16)
		return Char(v), err
	case "r4":
		v, err := parseFloat(c.Value, 32)
		return float32(v), err
	case "r8":
		return parseFloat(c.Value, 64)
	}

	bits, signed, ok := integerKind(c.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown constant kind %q", c.Kind)
	}
	if signed {
		v, err := strconv.ParseInt(c.Value, 0, bits)
		if err != nil {
			return nil, err
		}
		switch bits {
		case 8:
			return int8(v), nil
		case 16:
			return int16(v), nil
		case 32:
			return int32(v), nil
		}
		return v, nil
	}
	v, err := strconv.ParseUint(c.Value, 0, bits)
	if err != nil {
		return nil, err
	}
	switch bits {
	case 8:
		return uint8(v), nil
	case 16:
		return uint16(v), nil
	case 32:
		return uint32(v), nil
	}
	return v, nil
}

func integerKind(kind string) (bits int, signed bool, ok bool) {
	if len(kind) < 2 || (kind[0] != 'i' && kind[0] != 'u') {
		return 0, false, false
	}
	size, err := strconv.Atoi(kind[1:])
	if err != nil {
		return 0, false, false
	}
	switch size {
	case 1, 2, 4, 8:
		return size * 8, kind[0] == 'i', true
	}
	return 0, false, false
}

// parseFloat also accepts the NaN and infinity spellings used by .NET.
func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity", "+Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, bits)
}
