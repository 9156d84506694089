package catalog

import (
	"context"
	"path"

	"github.com/dave/jennifer/jen"

	"github.com/toyz/scaffold/internal/accumulator"
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

func mutationDescriptor() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "mutation",
		Description: "Validation hook for one write operation of a model",
		Schema: &schema.Schema{Fields: map[string]schema.Field{
			"op": {Type: schema.StringType, Required: true, Validator: schema.Typed(schema.OneOf(mutationOps...))},
		}},
		Dependencies: map[string]provider.Dependency{
			"model":    {Type: ModelType},
			"registry": {Type: RegistryType},
		},
		Wire: func(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
			model, err := provider.Value[*ModelInfo](wc.Deps, "model")
			if err != nil {
				return nil, err
			}
			reg, err := provider.Value[*accumulator.Accumulator](wc.Deps, "registry")
			if err != nil {
				return nil, err
			}
			_, err = reg.AppendUnique(wc.Path, "mutations", []interface{}{
				map[string]interface{}{"id": model.Name + "." + wc.Config.GetString("op")},
			}, nil)
			return nil, err
		},
		Build: func(_ context.Context, bc *generator.BuildContext) error {
			model, err := provider.Value[*ModelInfo](bc.Deps, "model")
			if err != nil {
				return err
			}
			op := bc.Config.GetString("op")
			target := path.Join(packageDir(model.Package), "mutations.go")
			packageFile(bc, target, model.Package)
			bc.Contribute(target, fragment.NewBlock(render(mutationFunc(model, op)), fragment.Import("errors")), "mutations")
			return nil
		},
	}
}

// mutationFunc renders the check run before op is applied to a model
func mutationFunc(model *ModelInfo, op string) *jen.Statement {
	checks := []jen.Code{
		jen.If(jen.Id("m").Op("==").Nil()).Block(
			jen.Return(jen.Qual("errors", "New").Call(jen.Lit(model.Package + ": " + op + " " + model.Type + ": nil value"))),
		),
	}
	if op != "create" {
		checks = append(checks, jen.If(jen.Id("m").Dot("ID").Op("==").Lit("")).Block(
			jen.Return(jen.Qual("errors", "New").Call(jen.Lit(model.Package + ": " + op + " " + model.Type + ": id is required"))),
		))
	}
	checks = append(checks, jen.Return(jen.Nil()))

	name := goName(op) + model.Type
	return jen.Commentf("%s checks a %s before it is %sd", name, model.Type, op).Line().
		Func().Id(name).Params(jen.Id("m").Op("*").Id(model.Type)).Error().Block(checks...)
}
