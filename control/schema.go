package control

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/graphql-go/graphql"
)

// NewGraphqlType builds an object type from the json tags of the struct val
// points to. Fields are resolved from a source of the same struct type,
// given by value or pointer.
func NewGraphqlType(name string, val interface{}) *graphql.Object {
	obj, _ := newGraphqlTypes(name, val)
	return obj
}

// NewGraphqlInputType is NewGraphqlType plus the matching input object.
func NewGraphqlInputType(name string, val interface{}) (*graphql.Object, *graphql.InputObject) {
	return newGraphqlTypes(name, val)
}

func newGraphqlTypes(name string, val interface{}) (*graphql.Object, *graphql.InputObject) {
	fields := graphql.Fields{}
	inputFields := graphql.InputObjectConfigFieldMap{}

	ref := reflect.TypeOf(val).Elem()
	tagMap := newJSONTagFieldMap(ref)

	resolver := func(field int) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			src := reflect.Indirect(reflect.ValueOf(p.Source))
			if !src.IsValid() || src.Type() != ref {
				return nil, fmt.Errorf("cannot resolve %s from %T", name, p.Source)
			}
			return src.Field(field).Interface(), nil
		}
	}

	for tag, i := range tagMap {
		typ := graphqlScalar(ref.Field(i).Type)
		fields[tag] = &graphql.Field{Type: typ, Resolve: resolver(i)}
		inputFields[tag] = &graphql.InputObjectFieldConfig{Type: typ}
	}

	obj := graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
	in := graphql.NewInputObject(graphql.InputObjectConfig{Name: "input" + name, Fields: inputFields})
	return obj, in
}

func graphqlScalar(t reflect.Type) *graphql.Scalar {
	switch t.Kind() {
	case reflect.Bool:
		return graphql.Boolean
	case reflect.Float32, reflect.Float64:
		return graphql.Float
	case reflect.String:
		return graphql.String
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return graphql.Int
	}
	panic(fmt.Sprint("unsupported type ", t))
}

// applyArgs copies the input object args onto the struct dst points to.
func applyArgs(dst interface{}, args map[string]interface{}) error {
	elem := reflect.ValueOf(dst).Elem()
	tagMap := newJSONTagFieldMap(elem.Type())
	for arg, val := range args {
		i, ok := tagMap[arg]
		if !ok {
			return fmt.Errorf("unknown field: %s", arg)
		}
		if val == nil {
			continue
		}
		f := elem.Field(i)
		v := reflect.ValueOf(val)
		if !v.Type().ConvertibleTo(f.Type()) {
			return fmt.Errorf("%s: cannot use %T", arg, val)
		}
		f.Set(v.Convert(f.Type()))
	}
	return nil
}

func jsonTag(f *reflect.StructField) string {
	t := f.Tag.Get("json")
	return strings.Split(t, ",")[0]
}

func newJSONTagFieldMap(ref reflect.Type) map[string]int {
	m := make(map[string]int)
	for i := 0; i < ref.NumField(); i++ {
		f := ref.Field(i)
		if tag := jsonTag(&f); tag != "" && tag != "-" {
			m[tag] = i
		}
	}
	return m
}
