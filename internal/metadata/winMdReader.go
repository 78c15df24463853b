// Package metadata describes the type graph that declarations are rebuilt
// from, and loads it from snapshot documents and Windows Metadata files.
package metadata

import (
	"debug/pe"
	"encoding/binary"
	"fmt"
	"gocsdump/internal"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/flags"
)

// ECMA-335 II.23.1 attribute bits. Only the bits the graph records are listed.
const (
	typeVisibilityMask = 0x7
	typeInterface      = 0x20
	typeAbstract       = 0x80
	typeSealed         = 0x100
	typeImport         = 0x1000
	typeSerializable   = 0x2000

	memberAccessMask = 0x7
	memberStatic     = 0x10

	fieldInitOnly      = 0x20
	fieldLiteral       = 0x40
	fieldNotSerialized = 0x80

	methodFinal    = 0x20
	methodVirtual  = 0x40
	methodNewSlot  = 0x100
	methodAbstract = 0x400
	methodPInvoke  = 0x2000

	paramIn  = 0x1
	paramOut = 0x2
)

// TypeDefOrRef and HasConstant coded index tags.
const (
	tagTypeDef = 0
	tagTypeRef = 1

	tagConstantField = 0
	tagConstantParam = 1
)

type WinMdReader struct {
	metadata winmd.Metadata
	path     string

	types         map[winmd.Index]*Type
	typesName     map[string]*Type
	imports       map[string]string
	fieldDefaults map[winmd.Index]any
	paramDefaults map[winmd.Index]any
	offsets       map[winmd.Index]uint64
}

// The map of element types to the CLR types they stand for
var builtInElementTypes map[flags.ElementType]string = map[flags.ElementType]string{
	flags.ElementType_BOOLEAN: "Boolean",
	flags.ElementType_CHAR:    "Char",
	flags.ElementType_STRING:  "String",
	flags.ElementType_I1:      "SByte",
	flags.ElementType_I2:      "Int16",
	flags.ElementType_I4:      "Int32",
	flags.ElementType_I8:      "Int64",
	flags.ElementType_U1:      "Byte",
	flags.ElementType_U2:      "UInt16",
	flags.ElementType_U4:      "UInt32",
	flags.ElementType_U8:      "UInt64",
	flags.ElementType_R4:      "Single",
	flags.ElementType_R8:      "Double",
	flags.ElementType_I:       "IntPtr",
	flags.ElementType_U:       "UIntPtr",
	flags.ElementType_OBJECT:  "Object",
}

// Type definition access, indexed by the visibility bits. Top-level types only
// distinguish public from internal.
var typeAccess = [...]Access{
	AccessAssembly,
	AccessPublic,
	AccessPublic,
	AccessPrivate,
	AccessFamily,
	AccessAssembly,
	AccessFamilyAndAssembly,
	AccessFamilyOrAssembly,
}

// Opens a reader over the WinMd file under given path
func NewReader(winMdPath string) (*WinMdReader, error) {
	peFile, err := pe.Open(winMdPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", winMdPath, err)
	}
	defer peFile.Close()

	winmdMetadata, err := winmd.New(peFile)
	if err != nil {
		return nil, fmt.Errorf("reading metadata of %s: %w", winMdPath, err)
	}

	return &WinMdReader{
		metadata:      *winmdMetadata,
		path:          winMdPath,
		types:         make(map[winmd.Index]*Type),
		typesName:     make(map[string]*Type),
		imports:       make(map[string]string),
		fieldDefaults: make(map[winmd.Index]any),
		paramDefaults: make(map[winmd.Index]any),
		offsets:       make(map[winmd.Index]uint64),
	}, nil
}

// LoadWinMd reads the whole metadata file as a single-assembly graph.
func LoadWinMd(winMdPath string) (*Graph, error) {
	reader, err := NewReader(winMdPath)
	if err != nil {
		return nil, err
	}
	graph := reader.Graph()
	log.Infof("loaded %d types from %s", len(graph.Types), winMdPath)
	return graph, nil
}

// Graph builds the type graph of every type definition in the file.
func (reader *WinMdReader) Graph() *Graph {
	image := filepath.Base(reader.path)
	assembly := &Assembly{ImageName: image, FullName: strings.TrimSuffix(image, filepath.Ext(image))}
	graph := &Graph{Assemblies: []*Assembly{assembly}}
	tables := reader.metadata.Tables

	reader.readImports()
	reader.readConstants()
	iterateOverTable(tables.FieldLayout, func(_ winmd.Index, layout *winmd.FieldLayout) {
		reader.offsets[layout.Field] = uint64(layout.Offset)
	})

	iterateOverTable(tables.TypeDef, func(idx winmd.Index, typeDef *winmd.TypeDef) {
		if typeDef.Name.String() == "<Module>" {
			return
		}
		attributes := uint32(typeDef.Flags)
		t := &Type{
			Namespace:      typeDef.Namespace.String(),
			Name:           typeDef.Name.String(),
			Index:          int(idx),
			Access:         typeAccess[attributes&typeVisibilityMask],
			IsInterface:    attributes&typeInterface != 0,
			IsAbstract:     attributes&typeAbstract != 0,
			IsSealed:       attributes&typeSealed != 0,
			IsImport:       attributes&typeImport != 0,
			IsSerializable: attributes&typeSerializable != 0,
			Assembly:       assembly,
		}
		reader.types[idx] = t
		assembly.Types = append(assembly.Types, t)
		graph.Types = append(graph.Types, t)
	})

	iterateOverTable(tables.NestedClass, func(_ winmd.Index, nestedClass *winmd.NestedClass) {
		nested, enclosing := reader.types[nestedClass.NestedClass], reader.types[nestedClass.EnclosingClass]
		if nested == nil || enclosing == nil {
			return
		}
		nested.IsNested = true
		nested.DeclaringType = enclosing
		enclosing.NestedTypes = append(enclosing.NestedTypes, nested)
	})
	for _, t := range graph.Types {
		if t.DeclaringType == nil {
			reader.typesName[t.FullName()] = t
		}
	}

	iterateOverTable(tables.TypeDef, func(idx winmd.Index, typeDef *winmd.TypeDef) {
		if t, ok := reader.types[idx]; ok {
			reader.fillType(t, typeDef)
		}
	})
	return graph
}

func (reader *WinMdReader) fillType(t *Type, typeDef *winmd.TypeDef) {
	if !t.IsInterface {
		t.BaseType = reader.typeDefOrRef(typeDef.Extends)
	}
	switch t.BaseType.FullName() {
	case "System.Enum":
		t.IsEnum = true
		t.IsValueType = true
	case "System.ValueType":
		t.IsValueType = true
	default:
		t.IsClass = !t.IsInterface
	}

	for idx := typeDef.FieldList.Start; idx < typeDef.FieldList.End; idx++ {
		field, err := reader.metadata.Tables.Field.Record(idx)
		internal.PanicOnError(err) // It returns an error only for out of range rows
		f, err := reader.getField(idx, field)
		if err != nil {
			log.Warningf("skipping field %s.%s: %s", t.FullName(), field.Name.String(), err.Error())
			continue
		}
		f.DeclaringType = t
		t.Fields = append(t.Fields, f)
	}

	for idx := typeDef.MethodList.Start; idx < typeDef.MethodList.End; idx++ {
		methodDef, err := reader.metadata.Tables.MethodDef.Record(idx)
		internal.PanicOnError(err)
		m, err := reader.getMethod(methodDef)
		if err != nil {
			log.Warningf("skipping method %s.%s: %s", t.FullName(), methodDef.Name.String(), err.Error())
			continue
		}
		m.DeclaringType = t
		if m.IsConstructor() {
			t.Constructors = append(t.Constructors, m)
		} else {
			t.Methods = append(t.Methods, m)
		}
	}
}

func (reader *WinMdReader) getField(idx winmd.Index, field *winmd.Field) (*Field, error) {
	fieldSignature, err := reader.metadata.FieldSignature(field.Signature)
	if err != nil {
		return nil, fmt.Errorf("no matching field signature was found: %w", err)
	}

	attributes := uint32(field.Flags)
	f := &Field{
		Name:            field.Name.String(),
		Type:            reader.getType(fieldSignature.Type),
		Offset:          reader.offsets[idx],
		Access:          Access(attributes & memberAccessMask),
		IsStatic:        attributes&memberStatic != 0,
		IsLiteral:       attributes&fieldLiteral != 0,
		IsInitOnly:      attributes&fieldInitOnly != 0,
		IsNotSerialized: attributes&fieldNotSerialized != 0,
	}
	f.DefaultValue, f.HasDefaultValue = reader.fieldDefaults[idx]
	return f, nil
}

func (reader *WinMdReader) getMethod(methodDef *winmd.MethodDef) (*Method, error) {
	methodSignature, err := reader.metadata.MethodDefSignature(methodDef.Signature)
	if err != nil {
		return nil, fmt.Errorf("no matching method signature was found: %w", err)
	}

	attributes := uint32(methodDef.Flags)
	method := &Method{
		Name:       methodDef.Name.String(),
		ReturnType: reader.getType(methodSignature.RetType.Type),
		Access:     Access(attributes & memberAccessMask),
		IsStatic:   attributes&memberStatic != 0,
		IsFinal:    attributes&methodFinal != 0,
		IsVirtual:  attributes&methodVirtual != 0,
		IsNewSlot:  attributes&methodNewSlot != 0,
		IsAbstract: attributes&methodAbstract != 0,
		IsPInvoke:  attributes&methodPInvoke != 0,
	}
	method.RequiresUnsafe = method.ReturnType.IsPointer()

	// Param rows are keyed by sequence; sequence 0 describes the return value.
	params := make(map[uint16]winmd.Index)
	for idx := methodDef.ParamList.Start; idx < methodDef.ParamList.End; idx++ {
		param, err := reader.metadata.Tables.Param.Record(idx)
		internal.PanicOnError(err)
		params[param.Sequence] = idx
	}

	for i, sigParam := range methodSignature.Param {
		p := &Parameter{Name: "arg" + strconv.Itoa(i), Type: reader.getType(sigParam.Type)}
		if idx, ok := params[uint16(i+1)]; ok {
			param, err := reader.metadata.Tables.Param.Record(idx)
			internal.PanicOnError(err)
			if name := param.Name.String(); name != "" {
				p.Name = name
			}
			paramAttributes := uint32(param.Flags)
			if p.Type.Kind == RefByRef {
				if paramAttributes&paramOut != 0 && paramAttributes&paramIn == 0 {
					p.Modifier = ParameterOut
				} else {
					p.Modifier = ParameterRef
				}
			}
			p.DefaultValue, p.HasDefaultValue = reader.paramDefaults[idx]
		}
		method.RequiresUnsafe = method.RequiresUnsafe || p.Type.IsPointer()
		method.Parameters = append(method.Parameters, p)
	}

	if method.IsPInvoke {
		if dll, found := reader.imports[method.Name]; found {
			dllImport := NewCustomAttribute(NamedRef("System.Runtime.InteropServices", "DllImportAttribute"))
			dllImport.Arguments = []string{strconv.Quote(dll)}
			method.Attributes = append(method.Attributes, dllImport)
		}
	}
	return method, nil
}

// getType converts a signature type to a reference. Element types the graph
// cannot express fall back to object.
func (reader *WinMdReader) getType(sigType winmd.SigType) *TypeRef {
	if builtInType, found := builtInElementTypes[sigType.Kind]; found {
		return NamedRef("System", builtInType)
	}

	switch sigType.Kind {
	case flags.ElementType_VOID:
		return nil
	case flags.ElementType_PTR, flags.ElementType_BYREF, flags.ElementType_SZARRAY, flags.ElementType_ARRAY:
		innerSigType, ok := sigType.Value.(winmd.SigType)
		if !ok {
			break
		}
		innerType := reader.getType(innerSigType)
		switch sigType.Kind {
		case flags.ElementType_PTR:
			return PointerRef(innerType)
		case flags.ElementType_BYREF:
			return ByRefRef(innerType)
		}
		return ArrayRef(innerType, 1)
	case flags.ElementType_CLASS, flags.ElementType_VALUETYPE:
		if index, ok := sigType.Value.(winmd.CodedIndex); ok {
			if ref := reader.typeDefOrRef(index); ref != nil {
				return ref
			}
		}
	case flags.ElementType_VAR, flags.ElementType_MVAR:
		return GenericParameterRef(fmt.Sprintf("T%v", sigType.Value))
	}
	return NamedRef("System", "Object")
}

func (reader *WinMdReader) typeDefOrRef(index winmd.CodedIndex) *TypeRef {
	switch index.Tag {
	case tagTypeDef:
		if t, ok := reader.types[index.Index]; ok {
			return t.Ref()
		}
	case tagTypeRef:
		typeRef, err := reader.metadata.Tables.TypeRef.Record(index.Index)
		internal.PanicOnError(err)
		ref := NamedRef(typeRef.Namespace.String(), typeRef.Name.String())
		if t, ok := reader.typesName[ref.FullName()]; ok {
			return t.Ref()
		}
		return ref
	}
	return nil
}

// Maps P/Invoke import names to the *.dll files implementing them.
func (reader *WinMdReader) readImports() {
	iterateOverTable(reader.metadata.Tables.ImplMap, func(_ winmd.Index, implMap *winmd.ImplMap) {
		dllImport, err := reader.metadata.Tables.ModuleRef.Record(implMap.ImportScope)
		internal.PanicOnError(err)
		reader.imports[implMap.ImportName.String()] = dllImport.Name.String()
	})
}

func (reader *WinMdReader) readConstants() {
	iterateOverTable(reader.metadata.Tables.Constant, func(_ winmd.Index, constant *winmd.Constant) {
		value, ok := constantValue(constant.Type, []byte(constant.Value))
		if !ok {
			return
		}
		switch constant.Parent.Tag {
		case tagConstantField:
			reader.fieldDefaults[constant.Parent.Index] = value
		case tagConstantParam:
			reader.paramDefaults[constant.Parent.Index] = value
		}
	})
}

// constantValue decodes a little-endian constant blob (ECMA-335 II.22.9).
func constantValue(kind flags.ElementType, data []byte) (any, bool) {
	size := map[flags.ElementType]int{
		flags.ElementType_BOOLEAN: 1, flags.ElementType_I1: 1, flags.ElementType_U1: 1,
		flags.ElementType_CHAR: 2, flags.ElementType_I2: 2, flags.ElementType_U2: 2,
		flags.ElementType_I4: 4, flags.ElementType_U4: 4, flags.ElementType_R4: 4,
		flags.ElementType_I8: 8, flags.ElementType_U8: 8, flags.ElementType_R8: 8,
	}[kind]
	if len(data) < size {
		return nil, false
	}

	switch kind {
	case flags.ElementType_BOOLEAN:
		return data[0] != 0, true
	case flags.ElementType_I1:
		return int8(data[0]), true
	case flags.ElementType_U1:
		return data[0], true
	case flags.ElementType_CHAR:
		return Char(binary.LittleEndian.Uint16(data)), true
	case flags.ElementType_I2:
		return int16(binary.LittleEndian.Uint16(data)), true
	case flags.ElementType_U2:
		return binary.LittleEndian.Uint16(data), true
	case flags.ElementType_I4:
		return int32(binary.LittleEndian.Uint32(data)), true
	case flags.ElementType_U4:
		return binary.LittleEndian.Uint32(data), true
	case flags.ElementType_R4:
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), true
	case flags.ElementType_I8:
		return int64(binary.LittleEndian.Uint64(data)), true
	case flags.ElementType_U8:
		return binary.LittleEndian.Uint64(data), true
	case flags.ElementType_R8:
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), true
	case flags.ElementType_STRING:
		units := make([]uint16, len(data)/2)
		for i := range units {
			units[i] = binary.LittleEndian.Uint16(data[2*i:])
		}
		return string(utf16.Decode(units)), true
	case flags.ElementType_CLASS:
		return nil, true
	}
	return nil, false
}

func iterateOverTable[T any, TP winmd.Record[T]](table winmd.Table[T, TP], action func(winmd.Index, TP)) {
	for idx := uint32(0); idx < table.Len; idx++ {
		element, err := table.Record(winmd.Index(idx))
		internal.PanicOnError(err) // It returns an error only when creating return value and for out of scope file
		action(winmd.Index(idx), element)
	}
}
