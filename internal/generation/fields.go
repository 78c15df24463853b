package generation

import (
	"fmt"
	"gocsdump/internal/metadata"
	"strings"
)

// fields renders declared fields. Enum backing fields are implied by the
// enum syntax and rendered by enumBody instead.
func (c *renderContext) fields(t *metadata.Type, prefix string) string {
	if t.IsEnum {
		return ""
	}

	var sb strings.Builder
	for _, f := range t.Fields {
		if c.suppressed(f.HasMarker) {
			continue
		}
		if f.IsNotSerialized {
			sb.WriteString(prefix + "\t[NonSerialized]\n")
		}
		sb.WriteString(c.attributes(f.Attributes, prefix+"\t", "", attributesPerLine))
		sb.WriteString(prefix + "\t" + fieldModifiers(f))

		if fb, ok := f.FixedBuffer(); ok && fb.ElementField != nil {
			fmt.Fprintf(&sb, "/* %s */ %s %s[0]", addressString(fb.Address), c.typeName(fb.ElementField.Type), f.Name)
		} else {
			sb.WriteString(c.typeName(f.Type) + " " + f.Name)
			if f.HasDefaultValue {
				sb.WriteString(" = " + literal(f.DefaultValue))
			}
		}
		sb.WriteString(";")

		// Constants have no storage.
		if !f.IsLiteral {
			fmt.Fprintf(&sb, " // 0x%02X", f.Offset)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
