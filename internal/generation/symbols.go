package generation

import (
	"fmt"
	"gocsdump/internal/metadata"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"
)

type symbol struct {
	address uint64
	name    string
}

// symbols collects every method with native code, named Namespace.Type$$Method.
// Types in excluded namespaces contribute nothing; nested types are reached
// through their declaring type.
func (generator *Generator) symbols() []symbol {
	var list []symbol
	var visit func(t *metadata.Type)
	visit = func(t *metadata.Type) {
		owner := strings.ReplaceAll(t.FullName(), "+", ".")
		var methods []*metadata.Method
		methods = append(methods, t.Constructors...)
		methods = append(methods, t.Methods...)
		for _, p := range t.Properties {
			methods = append(methods, p.Getter, p.Setter)
		}
		for _, e := range t.Events {
			methods = append(methods, e.Add, e.Remove, e.Raise)
		}
		seen := map[*metadata.Method]bool{}
		for _, m := range methods {
			if m == nil || m.Address == 0 || seen[m] {
				continue
			}
			seen[m] = true
			list = append(list, symbol{m.Address, owner + "$$" + m.Name})
		}
		for _, nested := range t.NestedTypes {
			visit(nested)
		}
	}
	for _, t := range generator.Types {
		if t.IsNested || t.DeclaringType != nil || generator.isExcluded(t) {
			continue
		}
		visit(t)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].address != list[j].address {
			return list[i].address < list[j].address
		}
		return list[i].name < list[j].name
	})
	return list
}

func (generator *Generator) symbolFile(packageName string) *jen.File {
	file := jen.NewFile(packageName)
	file.HeaderComment("Code generated by gocsdump. DO NOT EDIT.")

	file.Comment("Symbol is a method entry point in the dumped image.")
	file.Type().Id("Symbol").Struct(
		jen.Id("Address").Uint64(),
		jen.Id("Name").String(),
	)

	file.Comment("Methods lists every method with native code, ordered by address.")
	file.Var().Id("Methods").Op("=").Index().Id("Symbol").ValuesFunc(func(g *jen.Group) {
		for _, s := range generator.symbols() {
			g.Line().Values(jen.Dict{
				jen.Id("Address"): jen.Id(fmt.Sprintf("0x%08X", s.address)),
				jen.Id("Name"):    jen.Lit(s.name),
			})
		}
		g.Line()
	})
	return file
}

// GenerateSymbols writes a Go source file listing method addresses.
func (generator *Generator) GenerateSymbols(path string, packageName string) error {
	file := generator.symbolFile(packageName)
	if err := file.Save(path); err != nil {
		return fmt.Errorf("saving symbols to %s: %w", path, err)
	}
	log.Infof("wrote symbol table to %s", path)
	return nil
}
