package step

import (
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/stoewer/go-strcase"

	"github.com/lacquerai/countstep/internal/jsoncodec"
)

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		KeyNamer: strcase.SnakeCase,
		Namer: func(t reflect.Type) string {
			return strcase.SnakeCase(t.Name())
		},
		ExpandedStruct: true,
	}
}

// RequestSchema returns the JSON Schema describing a request document.
func RequestSchema() *jsonschema.Schema {
	s := newReflector().Reflect(&Request{})
	s.Title = "countstep request"
	return s
}

// ResponseSchema returns the JSON Schema describing a response document.
func ResponseSchema() *jsonschema.Schema {
	s := newReflector().Reflect(&Response{})
	s.Title = "countstep response"
	return s
}

// MarshalSchema renders s as indented JSON.
func MarshalSchema(s *jsonschema.Schema) ([]byte, error) {
	return jsoncodec.MarshalIndent(s, "", "  ")
}
