package catalog

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/toyz/scaffold/internal/accumulator"
	"github.com/toyz/scaffold/internal/fragment"
	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

var serviceMethods = []string{"list", "get", "create", "update", "delete"}

// CrudService is the read-only export of a service
type CrudService struct {
	Name    string
	Type    string
	Model   *ModelInfo
	Methods []string
}

func serviceDescriptor() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "service",
		Description: "In-memory CRUD service over one model, registered in main",
		Schema: &schema.Schema{Fields: map[string]schema.Field{
			"name": {Type: schema.StringType, Validator: schema.Typed(schema.Matches(namePattern))},
			"methods": {
				Type:      schema.StringSliceType,
				Default:   serviceMethods,
				Validator: schema.Typed(schema.MinItems[string](1), schema.Unique(), schema.Each(schema.OneOf(serviceMethods...))),
			},
			"version": {Type: schema.StringType, Validator: schema.Typed(schema.Matches(versionPattern))},
		}},
		Dependencies: map[string]provider.Dependency{
			"model":    {Type: ModelType},
			"registry": {Type: RegistryType},
			"main":     {Type: MainFileType},
		},
		Exports: map[string]provider.Export{
			"crud": {Type: CrudServiceType},
		},
		Wire:  wireService,
		Build: buildService,
	}
}

func wireService(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
	model, err := provider.Value[*ModelInfo](wc.Deps, "model")
	if err != nil {
		return nil, err
	}
	reg, err := provider.Value[*accumulator.Accumulator](wc.Deps, "registry")
	if err != nil {
		return nil, err
	}
	main, err := provider.Value[*fragment.Template](wc.Deps, "main")
	if err != nil {
		return nil, err
	}

	svc := &CrudService{
		Name:    baseName(wc.Node),
		Model:   model,
		Methods: wc.Config.GetStringSlice("methods"),
	}
	svc.Type = goName(svc.Name) + "Service"

	if _, err := reg.AppendUnique(wc.Path, "services", []interface{}{
		map[string]interface{}{"id": svc.Name, "model": model.Type},
	}, nil); err != nil {
		return nil, err
	}
	if v := wc.Config.GetString("version"); v != "" {
		if err := reg.Set(wc.Path, "version", v); err != nil {
			return nil, err
		}
	}
	if err := main.AppendReplacement(wc.Path, "SERVICES",
		fmt.Sprintf("reg.Register(services.New%s())", svc.Type),
		fragment.Import(generator.ModulePrefix+"/internal/services"),
	); err != nil {
		return nil, err
	}
	return provider.Exports{"crud": svc}, nil
}

func buildService(_ context.Context, bc *generator.BuildContext) error {
	svc := bc.Exports["crud"].(*CrudService)
	model := svc.Model
	modelPkg := bc.Env.Module + "/" + packageDir(model.Package)
	entity := func() *jen.Statement { return jen.Op("*").Qual(modelPkg, model.Type) }
	recv := func() *jen.Statement { return jen.Id("s").Op("*").Id(svc.Type) }

	f := jen.NewFile("services")
	f.HeaderComment(header)

	f.Commentf("%s keeps %s records in memory", svc.Type, model.Type)
	f.Type().Id(svc.Type).Struct(
		jen.Id("store").Map(jen.String()).Add(entity()),
	)

	f.Commentf("New%s creates an empty %s", svc.Type, svc.Type)
	f.Func().Id("New" + svc.Type).Params().Op("*").Id(svc.Type).Block(
		jen.Return(jen.Op("&").Id(svc.Type).Values(jen.Dict{
			jen.Id("store"): jen.Make(jen.Map(jen.String()).Add(entity())),
		})),
	)

	f.Comment("Name identifies the service in the registry")
	f.Func().Params(recv()).Id("Name").Params().String().Block(jen.Return(jen.Lit(svc.Name)))

	for _, method := range svc.Methods {
		switch method {
		case "list":
			f.Func().Params(recv()).Id("List").Params().Index().Add(entity()).Block(
				jen.Id("out").Op(":=").Make(jen.Index().Add(entity()), jen.Lit(0), jen.Len(jen.Id("s").Dot("store"))),
				jen.For(jen.List(jen.Id("_"), jen.Id("m")).Op(":=").Range().Id("s").Dot("store")).Block(
					jen.Id("out").Op("=").Append(jen.Id("out"), jen.Id("m")),
				),
				jen.Return(jen.Id("out")),
			)
		case "get":
			f.Func().Params(recv()).Id("Get").Params(jen.Id("id").String()).Params(entity(), jen.Bool()).Block(
				jen.List(jen.Id("m"), jen.Id("ok")).Op(":=").Id("s").Dot("store").Index(jen.Id("id")),
				jen.Return(jen.Id("m"), jen.Id("ok")),
			)
		case "create", "update":
			var body []jen.Code
			if model.HasMutation(method) {
				body = append(body, jen.If(
					jen.Err().Op(":=").Qual(modelPkg, goName(method)+model.Type).Call(jen.Id("m")),
					jen.Err().Op("!=").Nil(),
				).Block(jen.Return(jen.Err())))
			}
			body = append(body,
				jen.Id("s").Dot("store").Index(jen.Id("m").Dot("ID")).Op("=").Id("m"),
				jen.Return(jen.Nil()),
			)
			f.Func().Params(recv()).Id(goName(method)).Params(jen.Id("m").Add(entity())).Error().Block(body...)
		case "delete":
			f.Func().Params(recv()).Id("Delete").Params(jen.Id("id").String()).Error().Block(
				jen.If(jen.List(jen.Id("_"), jen.Id("ok")).Op(":=").Id("s").Dot("store").Index(jen.Id("id")), jen.Op("!").Id("ok")).Block(
					jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(svc.Name+": %q not found"), jen.Id("id"))),
				),
				jen.Delete(jen.Id("s").Dot("store"), jen.Id("id")),
				jen.Return(jen.Nil()),
			)
		}
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("render service %s: %w", svc.Name, err)
	}
	bc.WriteFile(path.Join("internal", "services", inflect.Underscore(svc.Name)+".go"), buf.String())
	return nil
}
