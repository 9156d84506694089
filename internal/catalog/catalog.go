// Package catalog holds the built-in generators: a project root with enum,
// model, mutation and service children generating a small Go application.
package catalog

import (
	"embed"
	"io/fs"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
)

// Provider types exchanged by the built-in generators
var (
	ProjectType     = provider.ReadOnly("project")
	RegistryType    = provider.Mutable("registry")
	MainFileType    = provider.Mutable("main-file")
	ModelType       = provider.ReadOnly("model")
	CrudServiceType = provider.ReadOnly("crud-service")
)

// DefaultCategories orders contributions to assembled files
var DefaultCategories = []string{"types", "constants", "functions", "mutations"}

// GoVersion is written to the generated go.mod
const GoVersion = "1.22"

const header = "Code generated by scaffold. DO NOT EDIT."

//go:embed templates/*.tmpl
var embedded embed.FS

// Templates is the static template tree copied by the built-in generators
var Templates fs.FS = mustSub(embedded, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// New returns a catalog with every built-in generator registered
func New() *generator.Catalog {
	return generator.NewCatalog().MustAdd(
		projectDescriptor(),
		enumDescriptor(),
		modelDescriptor(),
		mutationDescriptor(),
		serviceDescriptor(),
	)
}

// ProjectInfo describes the generated project
type ProjectInfo struct {
	Name    string
	Module  string
	Package string
}

// baseName is the logical name of a node: its configured name, or the last
// segment of its node name.
func baseName(n generator.Node) string {
	if name := n.Config.GetString("name"); name != "" {
		return name
	}
	if i := strings.LastIndex(n.Name, "."); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// goName turns "user_profile" or "user-profile" into "UserProfile"
func goName(name string) string {
	return inflect.Camelize(strings.ReplaceAll(name, "-", "_"))
}

// packageFile configures the preamble of an assembled file in pkg once per run
func packageFile(bc *generator.BuildContext, target, pkg string) {
	if bc.TryRegister(target, "<package>").AlreadyRegistered {
		return
	}
	bc.ConfigureFile(target, "// "+header+"\n\npackage "+pkg+"\n")
}

func packageDir(pkg string) string {
	return path.Join("internal", pkg)
}

// render formats a single jennifer declaration
func render(s *jen.Statement) string {
	return s.GoString()
}
