package catalog

import (
	"context"
	"path"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

const namePattern = `^[a-zA-Z][a-zA-Z0-9_\-]*$`

func enumDescriptor() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "enum",
		Description: "String enum with a Valid method, shared by every model referencing it",
		Schema: &schema.Schema{Fields: map[string]schema.Field{
			"name": {Type: schema.StringType, Validator: schema.Typed(schema.Matches(namePattern))},
			"values": {
				Type:     schema.StringSliceType,
				Required: true,
				Validator: schema.Typed(
					schema.MinItems[string](1),
					schema.Unique(),
					schema.Each(schema.Matches(namePattern)),
				),
			},
		}},
		Dependencies: map[string]provider.Dependency{
			"project": {Type: ProjectType},
		},
		Build: func(_ context.Context, bc *generator.BuildContext) error {
			project, err := provider.Value[*ProjectInfo](bc.Deps, "project")
			if err != nil {
				return err
			}
			emitEnum(bc, project.Package, goName(baseName(bc.Node)), bc.Config.GetStringSlice("values"))
			return nil
		},
	}
}

// emitEnum contributes the enum name to the package's enums.go unless
// another generator already did.
func emitEnum(bc *generator.BuildContext, pkg, name string, values []string) {
	target := path.Join(packageDir(pkg), "enums.go")
	if reg := bc.TryRegister(target, name); reg.AlreadyRegistered {
		bc.Env.Diagnostics.Debug("enum %s already emitted by %s", name, reg.Owner)
		return
	}
	packageFile(bc, target, pkg)

	consts := make([]jen.Code, len(values))
	cases := make([]jen.Code, len(values))
	for i, v := range values {
		id := name + goName(v)
		consts[i] = jen.Id(id).Id(name).Op("=").Lit(v)
		cases[i] = jen.Id(id)
	}

	typeDecl := jen.Commentf("%s is one of %s", name, strings.Join(values, ", ")).Line().
		Type().Id(name).String()
	valid := jen.Commentf("Valid reports whether e is a known %s", name).Line().
		Func().Params(jen.Id("e").Id(name)).Id("Valid").Params().Bool().Block(
		jen.Switch(jen.Id("e")).Block(
			jen.Case(cases...).Block(jen.Return(jen.True())),
		),
		jen.Return(jen.False()),
	)

	bc.Contribute(target, fragment.NewBlock(render(typeDecl)), "types")
	bc.Contribute(target, fragment.NewBlock(render(jen.Const().Defs(consts...))), "constants")
	bc.Contribute(target, fragment.NewBlock(render(valid)), "functions")
}
