package generation

import (
	"gocsdump/internal/metadata"
	"strings"
)

func (c *renderContext) events(t *metadata.Type, prefix string, used consumedMethods) string {
	var sb strings.Builder
	for _, e := range t.Events {
		accessors := []struct {
			keyword string
			method  *metadata.Method
		}{
			{"add", e.Add},
			{"remove", e.Remove},
			{"raise", e.Raise},
		}
		if e.Add == nil && e.Remove == nil && e.Raise == nil {
			continue
		}
		used.add(e.Add, e.Remove, e.Raise)
		if c.suppressed(e.HasMarker) {
			continue
		}

		modifiers := ""
		if e.Add != nil {
			modifiers = methodModifiers(e.Add)
		}
		sb.WriteString(c.attributes(e.Attributes, prefix+"\t", "", attributesPerLine))
		sb.WriteString(prefix + "\t" + modifiers + "event " + c.typeName(e.HandlerType) + " " + e.Name + " {\n")
		for _, accessor := range accessors {
			if accessor.method == nil {
				continue
			}
			sb.WriteString(prefix + "\t\t" + accessor.keyword + ";" + addressComment(accessor.method) + "\n")
		}
		sb.WriteString(prefix + "\t}\n")
	}
	return sb.String()
}
