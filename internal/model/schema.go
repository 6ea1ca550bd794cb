package model

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/bundle.schema.json
var bundleSchemaJSON string

var (
	bundleSchema  = mustCompileSchema(bundleSchemaJSON, "bundle.schema.json")
	schemaPrinter = message.NewPrinter(language.English)
)

func mustCompileSchema(raw, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// SchemaError lists every structural problem found in a bundle document.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "bundle does not match schema: " + strings.Join(e.Problems, "; ")
}

// ValidateDocument checks a JSON bundle document against the embedded bundle schema.
func ValidateDocument(data []byte) error {
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse bundle document: %w", err)
	}

	err = bundleSchema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("schema: %w", err)
	}

	var problems []string
	collectSchemaErrors(ve, &problems)
	return &SchemaError{Problems: problems}
}

func collectSchemaErrors(ve *jsonschema.ValidationError, problems *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*problems = append(*problems, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(schemaPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, problems)
	}
}
