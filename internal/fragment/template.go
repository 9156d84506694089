package fragment

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/toyz/scaffold/internal/errors"
)

// PlaceholderKind is the closed set of placeholder variants
type PlaceholderKind int

const (
	// ExpressionPlaceholder holds exactly one Expression
	ExpressionPlaceholder PlaceholderKind = iota
	// BlockPlaceholder holds exactly one Block
	BlockPlaceholder
	// ReplacementPlaceholder accumulates marked text contributions in order
	ReplacementPlaceholder
)

func (k PlaceholderKind) String() string {
	switch k {
	case ExpressionPlaceholder:
		return "expression"
	case BlockPlaceholder:
		return "block"
	case ReplacementPlaceholder:
		return "string-replacement"
	default:
		return "unknown"
	}
}

// ImportsToken marks where the rendered import block goes
const ImportsToken = "TPL_IMPORTS"

var tokenPattern = regexp.MustCompile(`/\*\s*(TPL_[A-Z0-9_]+)\s*\*/|\bTPL_[A-Z0-9_]+\b`)

// Placeholder declares one named hole of a template. The skeleton refers to
// it as TPL_<Name>, optionally wrapped in a block comment.
type Placeholder struct {
	Name     string
	Kind     PlaceholderKind
	Optional bool
}

// Token returns the skeleton token of the placeholder
func (p Placeholder) Token() string {
	return "TPL_" + p.Name
}

type contribution struct {
	by    string
	text  string
	decls []Declaration
}

type slot struct {
	spec          Placeholder
	set           bool
	setter        string
	value         Fragment
	contributions []contribution
}

// Template is a composite template: a skeleton with typed placeholders that
// fragments are merged into.
type Template struct {
	mu            sync.Mutex
	name          string
	owner         string
	skeleton      string
	slots         map[string]*slot
	decls         []Declaration
	mappers       []ImportMapper
	commentPrefix string
	frozen        bool
}

// TemplateOption configures a Template
type TemplateOption func(*Template)

// WithOwner records the node path that owns the template
func WithOwner(owner string) TemplateOption {
	return func(t *Template) { t.owner = owner }
}

// WithDeclarations adds declarations the skeleton itself requires
func WithDeclarations(decls ...Declaration) TemplateOption {
	return func(t *Template) { t.decls = UnionDeclarations(t.decls, decls) }
}

// WithMappers adds import mappers applied to every declaration at render
func WithMappers(mappers ...ImportMapper) TemplateOption {
	return func(t *Template) { t.mappers = append(t.mappers, mappers...) }
}

// WithCommentPrefix sets the line comment used for replacement markers.
// Defaults to "//".
func WithCommentPrefix(prefix string) TemplateOption {
	return func(t *Template) { t.commentPrefix = prefix }
}

// NewTemplate parses skeleton and checks that every declared placeholder
// appears in it and every token in it is declared.
func NewTemplate(name, skeleton string, placeholders []Placeholder, opts ...TemplateOption) (*Template, error) {
	t := &Template{
		name:          name,
		skeleton:      skeleton,
		slots:         make(map[string]*slot, len(placeholders)),
		commentPrefix: "//",
	}
	for _, opt := range opts {
		opt(t)
	}

	for _, p := range placeholders {
		if p.Token() == ImportsToken {
			return nil, errors.NewTemplateError(name, p.Name, "IMPORTS is reserved for the import block")
		}
		if _, dup := t.slots[p.Token()]; dup {
			return nil, errors.NewTemplateError(name, p.Name, "placeholder declared twice")
		}
		t.slots[p.Token()] = &slot{spec: p}
	}

	found := make(map[string]bool)
	for _, token := range scanTokens(skeleton) {
		found[token] = true
		if token == ImportsToken {
			continue
		}
		if _, ok := t.slots[token]; !ok {
			return nil, errors.NewTemplateError(name, token, "token in template is not a declared placeholder")
		}
	}
	for _, token := range sortedSlotTokens(t.slots) {
		if !found[token] {
			return nil, errors.NewTemplateError(name, t.slots[token].spec.Name, "declared placeholder does not appear in template")
		}
	}

	return t, nil
}

// MustTemplate is like NewTemplate but panics on error. For skeletons
// compiled into the binary.
func MustTemplate(name, skeleton string, placeholders []Placeholder, opts ...TemplateOption) *Template {
	t, err := NewTemplate(name, skeleton, placeholders, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the template name
func (t *Template) Name() string {
	return t.name
}

func (t *Template) slotFor(by, name string, kind PlaceholderKind) (*slot, error) {
	if t.frozen {
		return nil, errors.NewFrozenStateError(fmt.Sprintf("template '%s'", t.name), t.owner, by)
	}
	s, ok := t.slots["TPL_"+name]
	if !ok {
		return nil, errors.NewTemplateError(t.name, name, "unknown placeholder")
	}
	if s.spec.Kind != kind {
		return nil, errors.NewTemplateError(t.name, name,
			fmt.Sprintf("placeholder is a %s, cannot take a %s", s.spec.Kind, kind))
	}
	return s, nil
}

func (t *Template) setOnce(by, name string, kind PlaceholderKind, value Fragment) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.slotFor(by, name, kind)
	if err != nil {
		return err
	}
	if s.set {
		return errors.NewPlaceholderConflictError(t.name, name, s.setter, by)
	}
	s.set = true
	s.setter = by
	s.value = value
	return nil
}

// SetExpression fills an expression placeholder. Setting it twice is a
// PlaceholderConflictError.
func (t *Template) SetExpression(by, name string, e Expression) error {
	return t.setOnce(by, name, ExpressionPlaceholder, e)
}

// SetBlock fills a block placeholder. Setting it twice is a
// PlaceholderConflictError.
func (t *Template) SetBlock(by, name string, b Block) error {
	return t.setOnce(by, name, BlockPlaceholder, b)
}

// AppendReplacement adds text to a string-replacement placeholder
func (t *Template) AppendReplacement(by, name, text string, decls ...Declaration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.slotFor(by, name, ReplacementPlaceholder)
	if err != nil {
		return err
	}
	s.contributions = append(s.contributions, contribution{by: by, text: text, decls: decls})
	return nil
}

// AddDeclarations adds declarations required by the rendered file
func (t *Template) AddDeclarations(by string, decls ...Declaration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.NewFrozenStateError(fmt.Sprintf("template '%s'", t.name), t.owner, by)
	}
	t.decls = UnionDeclarations(t.decls, decls)
	return nil
}

// Freeze rejects further contributions
func (t *Template) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Render freezes the template, substitutes every placeholder and renders the
// deduplicated import block.
func (t *Template) Render() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true

	values := make(map[string]string, len(t.slots))
	decls := [][]Declaration{t.decls}
	for _, token := range sortedSlotTokens(t.slots) {
		s := t.slots[token]
		switch s.spec.Kind {
		case ExpressionPlaceholder, BlockPlaceholder:
			if !s.set {
				if !s.spec.Optional {
					return "", errors.NewTemplateError(t.name, s.spec.Name, "required placeholder was never set")
				}
				values[token] = ""
				continue
			}
			values[token] = s.value.Body()
			decls = append(decls, s.value.Declarations())
		case ReplacementPlaceholder:
			parts := make([]string, len(s.contributions))
			for i, c := range s.contributions {
				parts[i] = fmt.Sprintf("%s %s\n%s", t.commentPrefix, c.by, c.text)
				decls = append(decls, c.decls)
			}
			values[token] = strings.Join(parts, "\n")
		}
	}

	imports := ImportBlock(UnionDeclarations(decls...), t.mappers...)
	inline := false
	out := substitute(t.skeleton, func(token string) (string, bool) {
		if token == ImportsToken {
			inline = true
			return strings.TrimSuffix(imports, "\n"), true
		}
		v, ok := values[token]
		return v, ok
	})
	if inline {
		return out, nil
	}
	return insertImports(t.name, out, imports)
}

// Substitute replaces placeholder tokens in text with values keyed by
// placeholder name, leaving unknown tokens untouched.
func Substitute(text string, values map[string]string) string {
	return substitute(text, func(token string) (string, bool) {
		v, ok := values[strings.TrimPrefix(token, "TPL_")]
		return v, ok
	})
}

// RenderStatic renders a template that carries no placeholder declarations:
// values are substituted by name and decls become its import block. name
// identifies the template in errors.
func RenderStatic(name, text string, values map[string]string, decls []Declaration, mappers ...ImportMapper) (string, error) {
	imports := ImportBlock(decls, mappers...)
	inline := false
	out := substitute(text, func(token string) (string, bool) {
		if token == ImportsToken {
			inline = true
			return strings.TrimSuffix(imports, "\n"), true
		}
		v, ok := values[strings.TrimPrefix(token, "TPL_")]
		return v, ok
	})
	if inline {
		return out, nil
	}
	return insertImports(name, out, imports)
}

func scanTokens(text string) []string {
	var tokens []string
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			tokens = append(tokens, m[1])
		} else {
			tokens = append(tokens, m[0])
		}
	}
	return tokens
}

// substitute replaces tokens using lookup. A multi-line value replacing a
// token that starts its line is indented to the token's column.
func substitute(text string, lookup func(token string) (string, bool)) string {
	var b strings.Builder
	last := 0
	for _, loc := range tokenPattern.FindAllStringSubmatchIndex(text, -1) {
		token := text[loc[0]:loc[1]]
		if loc[2] >= 0 {
			token = text[loc[2]:loc[3]]
		}
		value, ok := lookup(token)
		if !ok {
			continue
		}

		b.WriteString(text[last:loc[0]])
		lineStart := strings.LastIndex(text[:loc[0]], "\n") + 1
		prefix := text[lineStart:loc[0]]
		if strings.TrimSpace(prefix) == "" && prefix != "" {
			value = indentNonEmpty(value, prefix)
		}
		b.WriteString(value)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func indentNonEmpty(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

var packageClause = regexp.MustCompile(`(?m)^package [A-Za-z_][A-Za-z0-9_]*[^\n]*\n`)

// insertImports puts the import block after the package clause of a Go file.
// Declarations with nowhere to go are an error, never dropped.
func insertImports(name, text, imports string) (string, error) {
	if imports == "" {
		return text, nil
	}
	loc := packageClause.FindStringIndex(text)
	if loc == nil {
		return "", errors.NewTemplateError(name, "", "declarations need a "+ImportsToken+" token or a package clause")
	}
	return text[:loc[1]] + "\n" + imports + text[loc[1]:], nil
}

func sortedSlotTokens(slots map[string]*slot) []string {
	tokens := make([]string, 0, len(slots))
	for token := range slots {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
