package metadata

// MarkerRole is the structural meaning of an attribute instance. Attributes that
// encode a language or tooling fact are consumed by renderers instead of being
// printed like ordinary attributes.
type MarkerRole int

const (
	MarkerNone MarkerRole = iota
	MarkerCompilerGenerated
	MarkerExtension
	MarkerFixedBuffer
	MarkerDefaultMember
	MarkerParamArray
)

var markerRoles = map[string]MarkerRole{
	"System.Runtime.CompilerServices.CompilerGeneratedAttribute": MarkerCompilerGenerated,
	"System.Runtime.CompilerServices.ExtensionAttribute":         MarkerExtension,
	"System.Runtime.CompilerServices.FixedBufferAttribute":       MarkerFixedBuffer,
	"System.Reflection.DefaultMemberAttribute":                   MarkerDefaultMember,
	"System.ParamArrayAttribute":                                 MarkerParamArray,
}

// ResolveMarkerRole maps the full name of an attribute type to its role.
// Attribute types without a structural meaning resolve to MarkerNone.
func ResolveMarkerRole(attributeTypeFullName string) MarkerRole {
	return markerRoles[attributeTypeFullName]
}

func (r MarkerRole) String() string {
	switch r {
	case MarkerCompilerGenerated:
		return "CompilerGenerated"
	case MarkerExtension:
		return "Extension"
	case MarkerFixedBuffer:
		return "FixedBuffer"
	case MarkerDefaultMember:
		return "DefaultMember"
	case MarkerParamArray:
		return "ParamArray"
	}
	return "None"
}
