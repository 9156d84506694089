package fragment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/scaffold/internal/errors"
)

func TestDeclaration_Equality(t *testing.T) {
	module := ImportMapper{Prefix: "@module", Target: "github.com/acme/shop"}

	tests := []struct {
		name  string
		a, b  Declaration
		equal bool
	}{
		{"same import", Import("fmt"), Import("fmt"), true},
		{"different symbol", ImportAs("f", "fmt"), Import("fmt"), false},
		{"mapper resolves to same origin",
			Import("@module/internal/models").WithMappers(module),
			Import("github.com/acme/shop/internal/models"), true},
		{"different origin", Import("strings"), Import("fmt"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.a.Equal(tt.b))
		})
	}
}

func TestImportMapper_Apply(t *testing.T) {
	m := ImportMapper{Prefix: "@module", Target: "example.com/app"}

	assert.Equal(t, "example.com/app", m.Apply("@module"))
	assert.Equal(t, "example.com/app/internal/x", m.Apply("@module/internal/x"))
	assert.Equal(t, "@modules/x", m.Apply("@modules/x"))
	assert.Equal(t, "fmt", m.Apply("fmt"))
}

func TestImportBlock(t *testing.T) {
	tests := []struct {
		name  string
		decls []Declaration
		want  string
	}{
		{"empty", nil, ""},
		{"single", []Declaration{Import("fmt")}, "import \"fmt\"\n"},
		{
			name: "sorted deduplicated aliased",
			decls: []Declaration{
				Import("strings"),
				ImportAs("str", "strings"),
				Import("fmt"),
				Import("strings"),
			},
			want: "import (\n\t\"fmt\"\n\tstr \"strings\"\n\t\"strings\"\n)\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ImportBlock(tt.decls))
		})
	}
}

func TestMergeExpressions(t *testing.T) {
	merged := MergeExpressions([]Expression{
		Expr("a", Import("fmt")),
		Expr("b", Import("fmt"), Import("os")),
	}, " + ")

	assert.Equal(t, "a + b", merged.Text)
	assert.Equal(t, []Declaration{Import("fmt"), Import("os")}, merged.Decls)
}

func TestMergeAsArrayAndObject(t *testing.T) {
	arr := MergeAsArray("string", []Expression{Expr(`"a"`), Expr(`"b"`, Import("strings"))})
	assert.Equal(t, "[]string{\n\t\"a\",\n\t\"b\",\n}", arr.Text)
	assert.Len(t, arr.Decls, 1)

	assert.Equal(t, "[]int{}", MergeAsArray("int", nil).Text)

	obj := MergeAsObject("Config", map[string]Expression{
		"Port": Expr("8080"),
		"Host": Expr(`os.Getenv("HOST")`, Import("os")),
	})
	assert.Equal(t, "Config{\n\tHost: os.Getenv(\"HOST\"),\n\tPort: 8080,\n}", obj.Text)
	assert.Equal(t, []Declaration{Import("os")}, obj.Decls)
}

func TestExpression_WrapPrepend(t *testing.T) {
	e := Expr("x", Import("fmt")).
		Wrap(func(s string) string { return "fmt.Sprint(" + s + ")" }).
		Prepend("return ")

	assert.Equal(t, "return fmt.Sprint(x)", e.Text)
	assert.Equal(t, []Declaration{Import("fmt")}, e.Decls)
}

func TestMergeBlocks(t *testing.T) {
	b := MergeBlocks([]Block{NewBlock("a()"), NewBlock(""), NewBlock("b()", Import("os"))}, "\n")

	assert.Equal(t, "a()\nb()", b.Text)
	assert.Len(t, b.Decls, 1)
	assert.Equal(t, "a()\nc()", NewBlock("a()").Append("c()").Text)
}

const mainSkeleton = `package main

func main() {
	app := TPL_APP
	/* TPL_ROUTES */
	TPL_RUN
}
`

func mainPlaceholders() []Placeholder {
	return []Placeholder{
		{Name: "APP", Kind: ExpressionPlaceholder},
		{Name: "ROUTES", Kind: ReplacementPlaceholder},
		{Name: "RUN", Kind: BlockPlaceholder, Optional: true},
	}
}

func TestNewTemplate_Validation(t *testing.T) {
	tests := []struct {
		name         string
		skeleton     string
		placeholders []Placeholder
	}{
		{"undeclared token", "x := TPL_OTHER", nil},
		{"declared but absent", "x := 1", []Placeholder{{Name: "X"}}},
		{"declared twice", "TPL_X", []Placeholder{{Name: "X"}, {Name: "X"}}},
		{"reserved imports", "TPL_IMPORTS", []Placeholder{{Name: "IMPORTS"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplate("t", tt.skeleton, tt.placeholders)
			assert.Equal(t, errors.TemplateErrorCode, errors.CodeOf(err))
		})
	}
}

func TestTemplate_Render(t *testing.T) {
	tpl, err := NewTemplate("main.go", mainSkeleton, mainPlaceholders(), WithOwner("/app"))
	require.NoError(t, err)

	require.NoError(t, tpl.SetExpression("/app", "APP", Expr("server.New()", Import("example.com/app/server"))))
	require.NoError(t, tpl.AppendReplacement("/app/users", "ROUTES", "app.Mount(users.Routes())", Import("example.com/app/users")))
	require.NoError(t, tpl.AppendReplacement("/app/orders", "ROUTES", "app.Mount(orders.Routes())", Import("example.com/app/orders")))

	out, err := tpl.Render()
	require.NoError(t, err)

	want := "package main\n\n" +
		"import (\n\t\"example.com/app/orders\"\n\t\"example.com/app/server\"\n\t\"example.com/app/users\"\n)\n\n" +
		"func main() {\n" +
		"\tapp := server.New()\n" +
		"\t// /app/users\n\tapp.Mount(users.Routes())\n" +
		"\t// /app/orders\n\tapp.Mount(orders.Routes())\n" +
		"\t\n" +
		"}\n"
	assert.Equal(t, want, out)

	again, err := tpl.Render()
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestTemplate_Conflicts(t *testing.T) {
	tpl := MustTemplate("main.go", mainSkeleton, mainPlaceholders(), WithOwner("/app"))

	require.NoError(t, tpl.SetExpression("/app/a", "APP", Expr("a")))

	err := tpl.SetExpression("/app/b", "APP", Expr("b"))
	var conflict *errors.PlaceholderConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "/app/a", conflict.OriginalSetter)
	assert.Equal(t, "/app/b", conflict.IncomingSetter)

	err = tpl.SetBlock("/app/b", "APP", NewBlock("b"))
	assert.Equal(t, errors.TemplateErrorCode, errors.CodeOf(err))

	err = tpl.AppendReplacement("/app/b", "MISSING", "x")
	assert.Equal(t, errors.TemplateErrorCode, errors.CodeOf(err))
}

func TestTemplate_MissingRequired(t *testing.T) {
	tpl := MustTemplate("main.go", mainSkeleton, mainPlaceholders())

	_, err := tpl.Render()
	var tplErr *errors.TemplateError
	require.ErrorAs(t, err, &tplErr)
	assert.Equal(t, "APP", tplErr.Placeholder)
}

func TestTemplate_FrozenAfterRender(t *testing.T) {
	tpl := MustTemplate("main.go", mainSkeleton, mainPlaceholders(), WithOwner("/app"))
	require.NoError(t, tpl.SetExpression("/app", "APP", Expr("x")))
	_, err := tpl.Render()
	require.NoError(t, err)

	err = tpl.AppendReplacement("/app/late", "ROUTES", "late()")
	assert.Equal(t, errors.FrozenStateErrorCode, errors.CodeOf(err))
	err = tpl.AddDeclarations("/app/late", Import("os"))
	assert.Equal(t, errors.FrozenStateErrorCode, errors.CodeOf(err))
}

func TestTemplate_ImportsTokenAndMappers(t *testing.T) {
	skeleton := "package x\n\nTPL_IMPORTS\n\nvar _ = TPL_V\n"
	tpl := MustTemplate("x.go", skeleton,
		[]Placeholder{{Name: "V", Kind: ExpressionPlaceholder}},
		WithMappers(ImportMapper{Prefix: "@module", Target: "example.com/app"}),
		WithDeclarations(Import("fmt")),
	)
	require.NoError(t, tpl.SetExpression("/x", "V", Expr("models.Zero", Import("@module/internal/models"))))

	out, err := tpl.Render()
	require.NoError(t, err)
	assert.Equal(t, "package x\n\nimport (\n\t\"example.com/app/internal/models\"\n\t\"fmt\"\n)\n\nvar _ = models.Zero\n", out)
}

func TestTemplate_CommentPrefix(t *testing.T) {
	tpl := MustTemplate("Makefile", "TPL_TARGETS\n",
		[]Placeholder{{Name: "TARGETS", Kind: ReplacementPlaceholder}},
		WithCommentPrefix("#"))
	require.NoError(t, tpl.AppendReplacement("/a", "TARGETS", "build:"))

	out, err := tpl.Render()
	require.NoError(t, err)
	assert.Equal(t, "# /a\nbuild:\n", out)
}

func TestSubstitute(t *testing.T) {
	out := Substitute("module TPL_MODULE\n\ngo TPL_GO /* TPL_KEEP */\n", map[string]string{
		"MODULE": "example.com/app",
		"GO":     "1.25",
	})
	assert.Equal(t, "module example.com/app\n\ngo 1.25 /* TPL_KEEP */\n", out)
	assert.False(t, strings.Contains(out, "TPL_MODULE"))
}

func TestRenderStatic(t *testing.T) {
	text := "package models\n\nconst Module = \"TPL_MODULE\"\n"

	out, err := RenderStatic("consts.go", text, map[string]string{"MODULE": "example.com/app"},
		[]Declaration{Import("@module/internal/db")},
		ImportMapper{Prefix: "@module", Target: "example.com/app"})
	require.NoError(t, err)
	assert.Equal(t, "package models\n\nimport \"example.com/app/internal/db\"\n\nconst Module = \"example.com/app\"\n", out)

	out, err = RenderStatic("notes.txt", "no imports here\n", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "no imports here\n", out)
}

func TestRenderStatic_DeclarationsWithoutPlacement(t *testing.T) {
	_, err := RenderStatic("README.md", "title\n", nil, []Declaration{Import("fmt")})
	require.Error(t, err)
	assert.Equal(t, errors.TemplateErrorCode, errors.CodeOf(err))

	tpl := MustTemplate("main.go", "func main() {\n\tTPL_BODY\n}\n",
		[]Placeholder{{Name: "BODY", Kind: BlockPlaceholder}})
	require.NoError(t, tpl.SetBlock("/app", "BODY", NewBlock("fmt.Println()", Import("fmt"))))
	_, err = tpl.Render()
	require.Error(t, err)
	assert.Equal(t, errors.TemplateErrorCode, errors.CodeOf(err))
}

func TestSubstitute_TokenBoundaries(t *testing.T) {
	out := Substitute("MY_TPL_NAME TPL_NAME xTPL_NAME\n", map[string]string{"NAME": "v"})
	assert.Equal(t, "MY_TPL_NAME v xTPL_NAME\n", out)
}
