package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const sampleSnapshot = `{
	"version": "1.2",
	"assemblies": [
		{
			"index": 0,
			"fullName": "Assembly-CSharp, Version=0.0.0.0",
			"imageName": "Assembly-CSharp.dll",
			"attributes": [
				{"type": {"namespace": "System.Reflection", "name": "AssemblyTitleAttribute"}, "arguments": ["\"Game\""]}
			]
		}
	],
	"types": [
		{
			"index": 1,
			"assembly": 0,
			"namespace": "Game",
			"name": "Player",
			"access": "public",
			"class": true,
			"baseType": {"namespace": "UnityEngine", "name": "MonoBehaviour"},
			"fields": [
				{"name": "health", "type": {"namespace": "System", "name": "Int32"}, "offset": 16, "access": "private"},
				{"name": "Tag", "type": {"namespace": "System", "name": "String"}, "access": "public", "static": true, "literal": true,
				 "default": {"kind": "string", "value": "player"}}
			],
			"properties": [
				{"name": "Name", "type": {"namespace": "System", "name": "String"}, "getter": 1, "setter": 2}
			],
			"methods": [
				{"name": ".ctor", "access": "public", "address": 4096},
				{"name": "get_Name", "access": "public", "returnType": {"namespace": "System", "name": "String"}, "address": 4112},
				{"name": "set_Name", "access": "private", "parameters": [{"name": "value", "type": {"namespace": "System", "name": "String"}}]},
				{"name": "Read", "access": "internal", "parameters": [
					{"name": "buffer", "type": {"kind": "pointer", "element": {"namespace": "System", "name": "Byte"}}},
					{"name": "count", "type": {"kind": "byref", "element": {"namespace": "System", "name": "Int32"}}, "modifier": "out"}
				]}
			],
			"attributes": [
				{"type": {"namespace": "System.Runtime.CompilerServices", "name": "CompilerGeneratedAttribute"}}
			]
		},
		{
			"index": 2,
			"assembly": 0,
			"name": "State",
			"access": "public",
			"enum": true,
			"valueType": true,
			"declaringType": 1,
			"fields": [
				{"name": "value__", "type": {"namespace": "System", "name": "Byte"}, "access": "public"},
				{"name": "Idle", "type": {"definition": 2, "name": "State"}, "access": "public", "static": true, "literal": true,
				 "default": {"kind": "u1", "value": "0"}},
				{"name": "Dead", "type": {"definition": 2, "name": "State"}, "access": "public", "static": true, "literal": true,
				 "default": {"kind": "u1", "value": "255"}}
			]
		}
	]
}`

func TestDecodeJSON(t *testing.T) {
	graph, err := DecodeJSON([]byte(sampleSnapshot))
	if err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	checkSampleGraph(t, graph)
}

func checkSampleGraph(t *testing.T, graph *Graph) {
	t.Helper()

	if len(graph.Assemblies) != 1 || len(graph.Types) != 2 {
		t.Fatalf("got %d assemblies and %d types, want 1 and 2", len(graph.Assemblies), len(graph.Types))
	}
	assembly := graph.Assemblies[0]
	if len(assembly.Types) != 2 || len(assembly.Attributes) != 1 || assembly.Attributes[0].Arguments[0] != `"Game"` {
		t.Errorf("assembly = %+v", assembly)
	}

	player, state := graph.Types[0], graph.Types[1]
	if player.Assembly != assembly || player.Access != AccessPublic || !player.IsClass {
		t.Errorf("player = %+v", player)
	}
	if !player.HasMarker(MarkerCompilerGenerated) {
		t.Error("player attribute role was not resolved")
	}
	if player.BaseType.FullName() != "UnityEngine.MonoBehaviour" {
		t.Errorf("base type = %s", player.BaseType.FullName())
	}
	if len(player.Fields) != 2 || player.Fields[0].Offset != 16 || player.Fields[0].Access != AccessPrivate {
		t.Errorf("fields = %+v", player.Fields)
	}
	if tag := player.Fields[1]; !tag.HasDefaultValue || tag.DefaultValue != "player" || tag.DeclaringType != player {
		t.Errorf("tag = %+v", tag)
	}

	if len(player.Constructors) != 1 || player.Constructors[0].Address != 4096 {
		t.Errorf("constructors = %+v", player.Constructors)
	}
	if len(player.Methods) != 3 {
		t.Fatalf("methods = %d, want 3", len(player.Methods))
	}
	property := player.Properties[0]
	if property.Getter != player.Methods[0] || property.Setter != player.Methods[1] || property.DeclaringType != player {
		t.Errorf("property accessors were not linked: %+v", property)
	}
	if property.Setter.Access != AccessPrivate {
		t.Errorf("setter access = %v, want private", property.Setter.Access)
	}

	read := player.Methods[2]
	if !read.RequiresUnsafe {
		t.Error("pointer parameter did not mark the method unsafe")
	}
	if count := read.Parameters[1]; count.Modifier != ParameterOut || count.Type.Kind != RefByRef {
		t.Errorf("count = %+v", count)
	}

	if state.DeclaringType != player || !state.IsNested || len(player.NestedTypes) != 1 || player.NestedTypes[0] != state {
		t.Error("nested type was not linked")
	}
	if state.EnumUnderlyingType().FullName() != "System.Byte" {
		t.Errorf("underlying type = %s", state.EnumUnderlyingType().FullName())
	}
	dead := state.Fields[2]
	if dead.Type.Definition != state || dead.DefaultValue != uint8(255) {
		t.Errorf("dead = %+v", dead)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	doc := sampleDocument(t)
	data, err := EncodeSnapshot(doc)
	if err != nil {
		t.Fatalf("EncodeSnapshot failed: %v", err)
	}
	again, err := EncodeSnapshot(doc)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, again) {
		t.Error("canonical encoding is not stable")
	}

	graph, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	checkSampleGraph(t, graph)
}

func TestLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(jsonPath, []byte(sampleSnapshot), 0644); err != nil {
		t.Fatal(err)
	}
	data, err := EncodeSnapshot(sampleDocument(t))
	if err != nil {
		t.Fatal(err)
	}
	cborPath := filepath.Join(dir, "metadata.cbor")
	if err := os.WriteFile(cborPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, cborPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			graph, err := LoadSnapshot(path)
			if err != nil {
				t.Fatalf("LoadSnapshot failed: %v", err)
			}
			checkSampleGraph(t, graph)
		})
	}

	if _, err := LoadSnapshot(filepath.Join(dir, "missing.cbor")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	var doc Document
	if err := json.Unmarshal([]byte(sampleSnapshot), &doc); err != nil {
		t.Fatal(err)
	}
	return &doc
}

func TestSnapshotVersion(t *testing.T) {
	tests := []struct {
		version string
		wantErr bool
	}{
		{"1.0", false},
		{"1.9.3", false},
		{"0.9", true},
		{"2.0", true},
		{"", true},
		{"latest", true},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			doc := &Document{Version: tt.version}
			_, err := doc.Link()
			if tt.wantErr && !errors.Is(err, ErrUnsupportedVersion) {
				t.Errorf("Link() error = %v, want ErrUnsupportedVersion", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Link() error = %v", err)
			}
		})
	}
}

func TestLinkErrors(t *testing.T) {
	unknown := 42
	badMethod := 3
	tests := []struct {
		name   string
		doc    Document
		target error
	}{
		{
			name: "unknown definition",
			doc: Document{Version: "1.0", Types: []TypeEntry{{Index: 1, Name: "A",
				BaseType: &TypeRefEntry{Name: "B", Definition: &unknown}}}},
			target: ErrUnknownType,
		},
		{
			name:   "unknown declaring type",
			doc:    Document{Version: "1.0", Types: []TypeEntry{{Index: 1, Name: "A", DeclaringType: &unknown}}},
			target: ErrUnknownType,
		},
		{
			name: "accessor out of range",
			doc: Document{Version: "1.0", Types: []TypeEntry{{Index: 1, Name: "A",
				Properties: []PropertyEntry{{Name: "P", Type: TypeRefEntry{Name: "Int32"}, Getter: &badMethod}}}}},
		},
		{
			name: "unknown access",
			doc:  Document{Version: "1.0", Types: []TypeEntry{{Index: 1, Name: "A", Access: "friend"}}},
		},
		{
			name: "duplicate index",
			doc:  Document{Version: "1.0", Types: []TypeEntry{{Index: 1, Name: "A"}, {Index: 1, Name: "B"}}},
		},
		{
			name: "unknown reference kind",
			doc: Document{Version: "1.0", Types: []TypeEntry{{Index: 1, Name: "A",
				Interfaces: []TypeRefEntry{{Kind: "function"}}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Link()
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v does not wrap %v", err, tt.target)
			}
		})
	}
}

func TestConstantValue(t *testing.T) {
	tests := []struct {
		constant ConstantEntry
		want     any
	}{
		{ConstantEntry{Kind: "null"}, nil},
		{ConstantEntry{Kind: "bool", Value: "true"}, true},
		{ConstantEntry{Kind: "char", Value: "65"}, Char('A')},
		{ConstantEntry{Kind: "i1", Value: "-128"}, int8(-128)},
		{ConstantEntry{Kind: "u2", Value: "0xFFFF"}, uint16(0xFFFF)},
		{ConstantEntry{Kind: "i4", Value: "-1"}, int32(-1)},
		{ConstantEntry{Kind: "u4", Value: "4294967295"}, uint32(math.MaxUint32)},
		{ConstantEntry{Kind: "i8", Value: "-9223372036854775808"}, int64(math.MinInt64)},
		{ConstantEntry{Kind: "u8", Value: "18446744073709551615"}, uint64(math.MaxUint64)},
		{ConstantEntry{Kind: "r4", Value: "1.5"}, float32(1.5)},
		{ConstantEntry{Kind: "r8", Value: "-Infinity"}, math.Inf(-1)},
		{ConstantEntry{Kind: "string", Value: "hi"}, "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.constant.Kind, func(t *testing.T) {
			got, err := tt.constant.value()
			if err != nil {
				t.Fatalf("value() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("value() = %#v, want %#v", got, tt.want)
			}
		})
	}

	for _, bad := range []ConstantEntry{{Kind: "i3", Value: "1"}, {Kind: "u1", Value: "256"}, {Kind: "decimal", Value: "1"}} {
		if _, err := bad.value(); err == nil {
			t.Errorf("%+v: expected an error", bad)
		}
	}
}
