package catalog

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"

	"github.com/toyz/scaffold/internal/generator"
	"github.com/toyz/scaffold/internal/provider"
	"github.com/toyz/scaffold/internal/schema"
)

var mutationOps = []string{"create", "update", "delete"}

// FieldSpec is one configured model field
type FieldSpec struct {
	Name   string
	Type   string
	Enum   string
	Values []string
}

var fieldTypes = map[string]func() *jen.Statement{
	"string": jen.String,
	"int":    jen.Int,
	"bool":   jen.Bool,
	"float":  jen.Float64,
	"time":   func() *jen.Statement { return jen.Qual("time", "Time") },
}

// EnumType is the Go type of an enum field
func (f FieldSpec) EnumType() string {
	return goName(f.Enum)
}

func (f FieldSpec) code() jen.Code {
	if f.Enum != "" {
		return jen.Id(f.EnumType())
	}
	return fieldTypes[f.Type]()
}

// ModelInfo is the read-only export of a model
type ModelInfo struct {
	Name      string
	Type      string
	Package   string
	Table     string
	Fields    []FieldSpec
	Mutations []string
}

// HasMutation reports whether the model generates op
func (m *ModelInfo) HasMutation(op string) bool {
	for _, o := range m.Mutations {
		if o == op {
			return true
		}
	}
	return false
}

func modelDescriptor() *generator.Descriptor {
	return &generator.Descriptor{
		Name:        "model",
		Description: "Struct with a table name and create/update/delete mutations",
		Schema: &schema.Schema{
			Fields: map[string]schema.Field{
				"name":    {Type: schema.StringType, Validator: schema.Typed(schema.Matches(namePattern))},
				"package": {Type: schema.StringType, Default: "models", Validator: schema.Typed(schema.GoIdentifier())},
				"table":   {Type: schema.StringType},
				"fields":  {Type: schema.ListType},
				"mutations": {
					Type:      schema.StringSliceType,
					Default:   mutationOps,
					Validator: schema.Typed(schema.Unique(), schema.Each(schema.OneOf(mutationOps...))),
				},
			},
			Checks: []schema.CrossFieldCheck{
				func(v schema.Values) error {
					_, err := parseFields(v.GetList("fields"))
					return err
				},
			},
		},
		Exports: map[string]provider.Export{
			"model": {Type: ModelType},
		},
		Children: map[string]generator.ChildSlot{
			"mutations": {Generator: "mutation", Multiple: true, Defaults: mutationDefaults},
		},
		Wire: func(_ context.Context, wc *generator.WireContext) (provider.Exports, error) {
			fields, err := parseFields(wc.Config.GetList("fields"))
			if err != nil {
				return nil, err
			}
			name := baseName(wc.Node)
			typeName := goName(name)
			table := wc.Config.GetString("table")
			if table == "" {
				table = inflect.Pluralize(inflect.Underscore(typeName))
			}
			return provider.Exports{"model": &ModelInfo{
				Name:      name,
				Type:      typeName,
				Package:   wc.Config.GetString("package"),
				Table:     table,
				Fields:    fields,
				Mutations: wc.Config.GetStringSlice("mutations"),
			}}, nil
		},
		Build: buildModel,
	}
}

// mutationDefaults spawns one mutation child per configured operation
func mutationDefaults(parent schema.Values) ([]generator.NodeSpec, error) {
	var specs []generator.NodeSpec
	for _, op := range parent.GetStringSlice("mutations") {
		specs = append(specs, generator.NodeSpec{Name: op, Config: map[string]interface{}{"op": op}})
	}
	return specs, nil
}

func buildModel(_ context.Context, bc *generator.BuildContext) error {
	model := bc.Exports["model"].(*ModelInfo)

	for _, f := range model.Fields {
		if f.Enum != "" && len(f.Values) > 0 {
			emitEnum(bc, model.Package, f.EnumType(), f.Values)
		}
	}

	f := jen.NewFile(model.Package)
	f.HeaderComment(header)

	fields := []jen.Code{jen.Id("ID").String().Tag(map[string]string{"json": "id"})}
	for _, field := range model.Fields {
		fields = append(fields, jen.Id(goName(field.Name)).Add(field.code()).
			Tag(map[string]string{"json": inflect.Underscore(field.Name)}))
	}
	f.Commentf("%s is stored in the %s table", model.Type, model.Table)
	f.Type().Id(model.Type).Struct(fields...)

	f.Comment("TableName returns the table backing " + model.Type)
	f.Func().Params(jen.Id(model.Type)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(model.Table)),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("render model %s: %w", model.Name, err)
	}
	bc.WriteFile(path.Join(packageDir(model.Package), inflect.Underscore(model.Name)+".go"), buf.String())
	return nil
}

// parseFields reads the "fields" list of a model configuration
func parseFields(list []interface{}) ([]FieldSpec, error) {
	fields := make([]FieldSpec, 0, len(list))
	seen := make(map[string]bool, len(list))
	for i, item := range list {
		raw, err := schema.ConvertToMap(item)
		if err != nil {
			return nil, fmt.Errorf("fields[%d]: %w", i, err)
		}
		var f FieldSpec
		for _, key := range sortedKeys(raw) {
			switch key {
			case "name":
				f.Name, err = schema.ConvertToString(raw[key])
			case "type":
				f.Type, err = schema.ConvertToString(raw[key])
			case "enum":
				f.Enum, err = schema.ConvertToString(raw[key])
			case "values":
				f.Values, err = schema.ConvertToStringSlice(raw[key])
			default:
				err = fmt.Errorf("unknown key '%s'", key)
			}
			if err != nil {
				return nil, fmt.Errorf("fields[%d]: %w", i, err)
			}
		}

		switch {
		case f.Name == "":
			return nil, fmt.Errorf("fields[%d]: name is required", i)
		case seen[f.Name]:
			return nil, fmt.Errorf("fields[%d]: duplicate field '%s'", i, f.Name)
		case f.Enum != "" && f.Type != "":
			return nil, fmt.Errorf("field '%s': enum fields take no type", f.Name)
		case len(f.Values) > 0 && f.Enum == "":
			return nil, fmt.Errorf("field '%s': values require an enum name", f.Name)
		}
		if f.Enum == "" && f.Type == "" {
			f.Type = "string"
		}
		if _, ok := fieldTypes[f.Type]; f.Enum == "" && !ok {
			return nil, fmt.Errorf("field '%s': unsupported type '%s'", f.Name, f.Type)
		}
		seen[f.Name] = true
		fields = append(fields, f)
	}
	return fields, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
