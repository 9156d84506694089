package catalog

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/toyz/scaffold/internal/accumulator"
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

const versionPattern = `^\d+\.\d+\.\d+$`

// DefaultVersion seeds the registry version entry
const DefaultVersion = "0.1.0"

const mainSkeleton = `// Code generated by scaffold. DO NOT EDIT.

package main

TPL_IMPORTS

func main() {
	reg := registry.New()
	TPL_SERVICES
	if err := reg.Run(); err != nil {
		log.Fatal(err)
	}
}
`

func projectDescriptor() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "project",
		Description: "Application root: go.mod, registry, main package and README",
		Schema: &schema.Schema{
			Fields: map[string]schema.Field{
				"title":   {Type: schema.StringType},
				"version": {Type: schema.StringType, Validator: schema.Typed(schema.Matches(versionPattern))},
				"package": {Type: schema.StringType, Default: "models", Validator: schema.Typed(schema.GoIdentifier())},
				"enums":   {Type: schema.ListType, Description: "enum children: [{name, values}]"},
				"models":  {Type: schema.ListType, Description: "model children: [{name, fields, ...}]"},
			},
			Checks: []schema.CrossFieldCheck{
				namedItems("enums"),
				namedItems("models"),
			},
		},
		Exports: map[string]provider.Export{
			"project":  {Type: ProjectType, Global: true},
			"registry": {Type: RegistryType},
			"main":     {Type: MainFileType},
		},
		Children: map[string]generator.ChildSlot{
			"enums":    {Generator: "enum", Multiple: true, Defaults: itemDefaults("enums", nil)},
			"models":   {Generator: "model", Multiple: true, Defaults: itemDefaults("models", inheritPackage)},
			"services": {Generator: "service", Multiple: true},
		},
		Wire:  wireProject,
		Build: buildProject,
	}
}

func inheritPackage(parent schema.Values, item map[string]interface{}) {
	if _, ok := item["package"]; !ok {
		item["package"] = parent.GetString("package")
	}
}

// itemDefaults spawns one child per entry of the parent's key list, named
// after the entry and configured with it.
func itemDefaults(key string, adjust func(schema.Values, map[string]interface{})) generator.DefaultsFunc {
	return func(parent schema.Values) ([]generator.NodeSpec, error) {
		var specs []generator.NodeSpec
		for i, raw := range parent.GetList(key) {
			item, err := schema.ConvertToMap(raw)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			config := make(map[string]interface{}, len(item)+1)
			for k, v := range item {
				config[k] = v
			}
			if adjust != nil {
				adjust(parent, config)
			}
			name, _ := config["name"].(string)
			specs = append(specs, generator.NodeSpec{Name: name, Config: config})
		}
		return specs, nil
	}
}

// namedItems checks that every entry of key is a map with a unique name
func namedItems(key string) schema.CrossFieldCheck {
	return func(v schema.Values) error {
		seen := make(map[string]bool)
		for i, raw := range v.GetList(key) {
			item, err := schema.ConvertToMap(raw)
			if err != nil {
				return fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			name, _ := item["name"].(string)
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("%s[%d]: name is required", key, i)
			}
			if seen[name] {
				return fmt.Errorf("%s: duplicate name '%s'", key, name)
			}
			seen[name] = true
		}
		return nil
	}
}

func newRegistry(owner string) *accumulator.Accumulator {
	return accumulator.New(owner,
		accumulator.WithEntry("title", accumulator.Scalar),
		accumulator.WithIdentity("services", accumulator.ByField("id")),
		accumulator.WithIdentity("mutations", accumulator.ByField("id")),
		accumulator.WithDefaults(map[string]interface{}{"version": DefaultVersion}),
	)
}

func wireProject(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
	// every generated import path hangs off the module, so settle it first
	if wc.Env.Module == "" {
		wc.Env.Module = wc.Name
	}

	reg := newRegistry(wc.Path)
	if title := wc.Config.GetString("title"); title != "" {
		if err := reg.SetScalar(wc.Path, "title", title); err != nil {
			return nil, err
		}
	}
	if version := wc.Config.GetString("version"); version != "" {
		if err := reg.Set(wc.Path, "version", version); err != nil {
			return nil, err
		}
	}

	main, err := fragment.NewTemplate("main.go", mainSkeleton,
		[]fragment.Placeholder{{Name: "SERVICES", Kind: fragment.ReplacementPlaceholder}},
		fragment.WithOwner(wc.Path),
		fragment.WithDeclarations(
			fragment.Import("log"),
			fragment.Import(generator.ModulePrefix+"/internal/registry"),
		),
		fragment.WithMappers(wc.Env.Mappers()...),
	)
	if err != nil {
		return nil, err
	}

	return provider.Exports{
		"project": &ProjectInfo{
			Name:    wc.Name,
			Module:  wc.Env.Module,
			Package: wc.Config.GetString("package"),
		},
		"registry": reg,
		"main":     main,
	}, nil
}

func buildProject(_ context.Context, bc *generator.BuildContext) error {
	info := bc.Exports["project"].(*ProjectInfo)
	snap := bc.Exports["registry"].(*accumulator.Accumulator).Snapshot()
	main := bc.Exports["main"].(*fragment.Template)

	title := snap.GetString("title")
	if title == "" {
		title = goName(info.Name)
	}
	version := snap.GetString("version")

	var mutations []string
	for _, m := range accumulator.ItemsAs[map[string]interface{}](snap, "mutations") {
		mutations = append(mutations, fmt.Sprint(m["id"]))
	}
	registryFile, err := registrySource(title, version, mutations)
	if err != nil {
		return err
	}
	bc.WriteFile("internal/registry/registry.go", registryFile)

	bc.RenderTemplate(path.Join("cmd", info.Name, "main.go"), main)

	services := "None."
	if items := accumulator.ItemsAs[map[string]interface{}](snap, "services"); len(items) > 0 {
		lines := make([]string, len(items))
		for i, s := range items {
			lines[i] = fmt.Sprintf("- %v (%v)", s["id"], s["model"])
		}
		services = strings.Join(lines, "\n")
	}
	bc.CopyTemplate("README.md", "README.md.tmpl", map[string]string{
		"TITLE":    title,
		"VERSION":  version,
		"SERVICES": services,
	})
	bc.CopyTemplate("go.mod", "go.mod.tmpl", map[string]string{
		"MODULE":     info.Module,
		"GO_VERSION": GoVersion,
	})
	bc.RunCommand("go mod tidy", "", "go.mod")
	return nil
}

// registrySource renders the registry package listing the app's services
func registrySource(title, version string, mutations []string) (string, error) {
	f := jen.NewFile("registry")
	f.HeaderComment(header)

	f.Const().Defs(
		jen.Id("Title").Op("=").Lit(title),
		jen.Id("Version").Op("=").Lit(version),
	)
	f.Comment("Mutations lists every generated mutation as model.op")
	f.Var().Id("Mutations").Op("=").Index().String().ValuesFunc(func(g *jen.Group) {
		for _, m := range mutations {
			g.Lit(m)
		}
	})

	f.Comment("Service is a unit registered in main")
	f.Type().Id("Service").Interface(jen.Id("Name").Params().String())

	f.Comment("Registry holds the registered services")
	f.Type().Id("Registry").Struct(jen.Id("services").Index().Id("Service"))

	f.Func().Id("New").Params().Op("*").Id("Registry").Block(
		jen.Return(jen.Op("&").Id("Registry").Values()),
	)
	f.Func().Params(jen.Id("r").Op("*").Id("Registry")).Id("Register").Params(jen.Id("s").Id("Service")).Block(
		jen.Id("r").Dot("services").Op("=").Append(jen.Id("r").Dot("services"), jen.Id("s")),
	)
	f.Func().Params(jen.Id("r").Op("*").Id("Registry")).Id("Run").Params().Error().Block(
		jen.For(jen.List(jen.Id("_"), jen.Id("s")).Op(":=").Range().Id("r").Dot("services")).Block(
			jen.Qual("fmt", "Printf").Call(jen.Lit("%s %s: %s\n"), jen.Id("Title"), jen.Id("Version"), jen.Id("s").Dot("Name").Call()),
		),
		jen.Return(jen.Nil()),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return "", fmt.Errorf("render registry: %w", err)
	}
	return buf.String(), nil
}
