package fragment

import (
	"sort"
	"strings"
)

// Fragment is a unit of generated text plus the declarations it requires
type Fragment interface {
	Body() string
	Declarations() []Declaration
}

// Expression is a single inline value
type Expression struct {
	Text  string
	Decls []Declaration
}

// Expr creates an expression
func Expr(text string, decls ...Declaration) Expression {
	return Expression{Text: text, Decls: decls}
}

func (e Expression) Body() string               { return e.Text }
func (e Expression) Declarations() []Declaration { return e.Decls }

// Wrap returns the expression with its text transformed by fn
func (e Expression) Wrap(fn func(string) string) Expression {
	return Expression{Text: fn(e.Text), Decls: e.Decls}
}

// Prepend returns the expression with text placed in front of it
func (e Expression) Prepend(text string) Expression {
	return Expression{Text: text + e.Text, Decls: e.Decls}
}

// Require returns the expression with extra declarations
func (e Expression) Require(decls ...Declaration) Expression {
	return Expression{Text: e.Text, Decls: UnionDeclarations(e.Decls, decls)}
}

// MergeExpressions joins expressions with sep and unions their declarations
func MergeExpressions(list []Expression, sep string) Expression {
	texts := make([]string, len(list))
	decls := make([][]Declaration, len(list))
	for i, e := range list {
		texts[i] = e.Text
		decls[i] = e.Decls
	}
	return Expression{Text: strings.Join(texts, sep), Decls: UnionDeclarations(decls...)}
}

// MergeAsArray renders a slice literal of elemType, one element per line.
// An empty elemType renders a bare brace list.
func MergeAsArray(elemType string, items []Expression) Expression {
	var b strings.Builder
	if elemType != "" {
		b.WriteString("[]" + elemType)
	}
	if len(items) == 0 {
		b.WriteString("{}")
		return Expression{Text: b.String()}
	}

	decls := make([][]Declaration, len(items))
	b.WriteString("{\n")
	for i, item := range items {
		b.WriteString("\t" + indentTail(item.Text, "\t") + ",\n")
		decls[i] = item.Decls
	}
	b.WriteString("}")
	return Expression{Text: b.String(), Decls: UnionDeclarations(decls...)}
}

// MergeAsObject renders a composite literal of typeName with fields sorted
// by name.
func MergeAsObject(typeName string, fields map[string]Expression) Expression {
	if len(fields) == 0 {
		return Expression{Text: typeName + "{}"}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	decls := make([][]Declaration, 0, len(names))
	b.WriteString(typeName + "{\n")
	for _, name := range names {
		f := fields[name]
		b.WriteString("\t" + name + ": " + indentTail(f.Text, "\t") + ",\n")
		decls = append(decls, f.Decls)
	}
	b.WriteString("}")
	return Expression{Text: b.String(), Decls: UnionDeclarations(decls...)}
}

// Block is a multi-statement body
type Block struct {
	Text  string
	Decls []Declaration
}

// NewBlock creates a block
func NewBlock(text string, decls ...Declaration) Block {
	return Block{Text: text, Decls: decls}
}

func (b Block) Body() string               { return b.Text }
func (b Block) Declarations() []Declaration { return b.Decls }

// Append returns the block with text added after a newline
func (b Block) Append(text string) Block {
	if b.Text == "" {
		return Block{Text: text, Decls: b.Decls}
	}
	return Block{Text: b.Text + "\n" + text, Decls: b.Decls}
}

// MergeBlocks joins blocks with sep, skipping empty bodies
func MergeBlocks(blocks []Block, sep string) Block {
	var texts []string
	decls := make([][]Declaration, len(blocks))
	for i, blk := range blocks {
		if blk.Text != "" {
			texts = append(texts, blk.Text)
		}
		decls[i] = blk.Decls
	}
	return Block{Text: strings.Join(texts, sep), Decls: UnionDeclarations(decls...)}
}

// ToBlock converts an expression into a one-line block
func (e Expression) ToBlock() Block {
	return Block{Text: e.Text, Decls: e.Decls}
}

func indentTail(text, indent string) string {
	return strings.ReplaceAll(text, "\n", "\n"+indent)
}
