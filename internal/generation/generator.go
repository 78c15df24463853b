package generation

import (
	"fmt"
	"gocsdump/internal/metadata"
	"io"
	"os"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("gocsdump.generation")

type Options struct {
	// Namespaces to skip. A type is skipped when its namespace equals one of
	// them or nests under it.
	ExcludedNamespaces []string
	// Omit compiler-generated types and members, and strip the marker from
	// accessor attribute lists.
	SuppressCompilerGenerated bool
}

type Generator struct {
	Types   []*metadata.Type
	Options Options
}

func NewGenerator(options Options) Generator {
	return Generator{
		make([]*metadata.Type, 0),
		options,
	}
}

func (generator *Generator) RegisterType(element *metadata.Type) {
	generator.Types = append(generator.Types, element)
}

// RegisterAssembly registers every type the assembly defines, nested types
// included; those are skipped at top level when rendering.
func (generator *Generator) RegisterAssembly(assembly *metadata.Assembly) {
	for _, t := range assembly.Types {
		generator.RegisterType(t)
	}
}

func (generator *Generator) isExcluded(t *metadata.Type) bool {
	for _, prefix := range generator.Options.ExcludedNamespaces {
		if t.Namespace == prefix || strings.HasPrefix(t.Namespace, prefix+".") {
			return true
		}
	}
	return false
}

// renderType renders one top-level type and returns the namespaces it refers
// to, excluding its own.
func (generator *Generator) renderType(t *metadata.Type) (string, namespaceSet) {
	c := newRenderContext(&generator.Options)
	text := c.typeDeclaration(t, "")
	delete(c.refs, t.Namespace)
	return text, c.refs
}

// Render produces the whole source unit for the registered types.
func (generator *Generator) Render() string {
	usings := namespaceSet{}
	var assemblies []*metadata.Assembly
	seen := map[*metadata.Assembly]bool{}

	var body strings.Builder
	for _, t := range generator.Types {
		if t.IsNested || t.DeclaringType != nil || generator.isExcluded(t) {
			continue
		}
		text, refs := generator.renderType(t)
		if text == "" {
			continue
		}
		usings.union(refs)
		if t.Assembly != nil && !seen[t.Assembly] {
			seen[t.Assembly] = true
			assemblies = append(assemblies, t.Assembly)
		}

		namespace := t.Namespace
		if namespace == "" {
			namespace = "<global>"
		}
		body.WriteString("// Namespace: " + namespace + "\n")
		body.WriteString(text + "\n")
	}

	c := newRenderContext(&generator.Options)
	var header strings.Builder
	for _, assembly := range assemblies {
		header.WriteString(assemblyComment(assembly))
		header.WriteString(c.attributes(assembly.Attributes, "", "assembly: ", attributesPerLine))
	}
	usings.union(c.refs)

	var sb strings.Builder
	for _, namespace := range usings.sorted() {
		sb.WriteString("using " + namespace + ";\n")
	}
	if len(usings) > 0 {
		sb.WriteString("\n")
	}
	if header.Len() > 0 {
		sb.WriteString(header.String() + "\n")
	}
	sb.WriteString(body.String())
	return sb.String()
}

func assemblyComment(assembly *metadata.Assembly) string {
	comment := fmt.Sprintf("// Image %d: %s - Assembly: %s", assembly.Index, assembly.ImageName, assembly.FullName)
	if first, last, ok := assembly.TypeRange(); ok {
		comment += fmt.Sprintf(" - Types %d-%d", first, last)
	}
	return comment + "\n"
}

func (generator *Generator) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, generator.Render())
	return int64(n), err
}

// Generate renders the registered types and writes them to path. The file is
// only created once rendering has finished.
func (generator *Generator) Generate(path string) error {
	text := generator.Render()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := writeAndClose(file, text); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Infof("wrote %d bytes of declarations to %s", len(text), path)
	return nil
}

// writeAndClose always closes w. A close failure is reported only when the
// write itself succeeded.
func writeAndClose(w io.WriteCloser, text string) error {
	_, err := io.WriteString(w, text)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}
