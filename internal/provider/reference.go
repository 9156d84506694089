package provider

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Reference selects a specific producer node, and optionally one of its
// export slots, e.g. "/app/models.user#model", "../auth" or "user".
type Reference struct {
	Absolute bool       `parser:"@Slash?"`
	Segments []*Segment `parser:"( @@ ( Slash @@ )* )?"`
	Export   string     `parser:"( Hash @Ident )?"`
}

// Segment is one step of a reference path
type Segment struct {
	Up   bool   `parser:"  @Up"`
	Self bool   `parser:"| @Dot"`
	Name string `parser:"| @Ident"`
}

var referenceParser = participle.MustBuild[Reference](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_\-]*(\.[a-zA-Z0-9_\-]+)*`},
		{Name: "Up", Pattern: `\.\.`},
		{Name: "Dot", Pattern: `\.`},
		{Name: "Slash", Pattern: `/`},
		{Name: "Hash", Pattern: `#`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// ParseReference parses a reference string
func ParseReference(ref string) (*Reference, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("empty reference")
	}
	r, err := referenceParser.ParseString("", ref)
	if err != nil {
		return nil, fmt.Errorf("invalid reference '%s': %w", ref, err)
	}
	if !r.Absolute && len(r.Segments) == 0 {
		return nil, fmt.Errorf("invalid reference '%s': no path", ref)
	}
	return r, nil
}

// String renders the reference in canonical form
func (r *Reference) String() string {
	parts := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		switch {
		case s.Up:
			parts[i] = ".."
		case s.Self:
			parts[i] = "."
		default:
			parts[i] = s.Name
		}
	}
	out := strings.Join(parts, "/")
	if r.Absolute {
		out = "/" + out
	}
	if r.Export != "" {
		out += "#" + r.Export
	}
	return out
}

// Resolve turns the reference into an absolute node path. Relative
// references start at the parent of the node at from, so a bare name
// selects a sibling.
func (r *Reference) Resolve(from string) (string, error) {
	var stack []string
	if !r.Absolute {
		stack = splitPath(from)
		if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
	}
	for _, s := range r.Segments {
		switch {
		case s.Self:
		case s.Up:
			if len(stack) == 0 {
				return "", fmt.Errorf("reference '%s' from %s climbs above the root", r, from)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, s.Name)
		}
	}
	if len(stack) == 0 {
		return "", fmt.Errorf("reference '%s' from %s does not name a node", r, from)
	}
	return "/" + strings.Join(stack, "/"), nil
}

func splitPath(p string) []string {
	var out []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
