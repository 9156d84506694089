// Package fragment models units of generated text and the declarations
// (imports) they require, and merges them into complete files.
package fragment

import (
	"path"
	"sort"
	"strings"
)

// ImportMapper rewrites an origin prefix, e.g. "@module" to the module path
// of the generated project.
type ImportMapper struct {
	Prefix string
	Target string
}

// Apply rewrites origin when it starts with the mapper prefix
func (m ImportMapper) Apply(origin string) string {
	if m.Prefix == "" {
		return origin
	}
	if origin == m.Prefix {
		return m.Target
	}
	if strings.HasPrefix(origin, m.Prefix+"/") {
		return m.Target + origin[len(m.Prefix):]
	}
	return origin
}

// Declaration is one required import: the symbol used in generated code and
// the origin it comes from.
type Declaration struct {
	Symbol  string
	Origin  string
	Mappers []ImportMapper
}

// Import declares origin used under its default package name
func Import(origin string) Declaration {
	return Declaration{Symbol: path.Base(origin), Origin: origin}
}

// ImportAs declares origin used under symbol
func ImportAs(symbol, origin string) Declaration {
	return Declaration{Symbol: symbol, Origin: origin}
}

// WithMappers returns a copy of d carrying additional import mappers
func (d Declaration) WithMappers(mappers ...ImportMapper) Declaration {
	d.Mappers = append(append([]ImportMapper(nil), d.Mappers...), mappers...)
	return d
}

// Resolve applies the declaration's own mappers followed by extra, and
// returns a declaration without mappers.
func (d Declaration) Resolve(extra ...ImportMapper) Declaration {
	origin := d.Origin
	for _, m := range d.Mappers {
		origin = m.Apply(origin)
	}
	for _, m := range extra {
		origin = m.Apply(origin)
	}
	symbol := d.Symbol
	if symbol == "" {
		symbol = path.Base(origin)
	}
	return Declaration{Symbol: symbol, Origin: origin}
}

// Key is the identity of a declaration after mapper resolution
func (d Declaration) Key() string {
	r := d.Resolve()
	return r.Origin + "\x00" + r.Symbol
}

// Equal reports whether two declarations name the same symbol and origin
func (d Declaration) Equal(other Declaration) bool {
	return d.Key() == other.Key()
}

// UnionDeclarations merges declaration lists, dropping duplicates while
// keeping the first occurrence order.
func UnionDeclarations(lists ...[]Declaration) []Declaration {
	seen := make(map[string]bool)
	var out []Declaration
	for _, list := range lists {
		for _, d := range list {
			k := d.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, d)
		}
	}
	return out
}

// ImportBlock renders declarations as a Go import block sorted by origin then
// symbol. An alias is written when the symbol differs from the origin's base.
func ImportBlock(decls []Declaration, mappers ...ImportMapper) string {
	seen := make(map[string]bool)
	var resolved []Declaration
	for _, d := range decls {
		r := d.Resolve(mappers...)
		k := r.Origin + "\x00" + r.Symbol
		if r.Origin == "" || seen[k] {
			continue
		}
		seen[k] = true
		resolved = append(resolved, r)
	}
	if len(resolved) == 0 {
		return ""
	}

	sort.Slice(resolved, func(i, j int) bool {
		if resolved[i].Origin != resolved[j].Origin {
			return resolved[i].Origin < resolved[j].Origin
		}
		return resolved[i].Symbol < resolved[j].Symbol
	})

	lines := make([]string, len(resolved))
	for i, d := range resolved {
		if d.Symbol == path.Base(d.Origin) {
			lines[i] = `"` + d.Origin + `"`
		} else {
			lines[i] = d.Symbol + ` "` + d.Origin + `"`
		}
	}

	if len(lines) == 1 {
		return "import " + lines[0] + "\n"
	}

	var b strings.Builder
	b.WriteString("import (\n")
	for _, line := range lines {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString(")\n")
	return b.String()
}
