package interpret

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed selection.schema.json
var selectionSchemaJSON string

//go:embed post.schema.json
var postSchemaJSON string

//go:embed social.schema.json
var socialSchemaJSON string

var (
	compileOnce     sync.Once
	selectionSchema *jsonschema.Schema
	postSchema      *jsonschema.Schema
	socialSchema    *jsonschema.Schema
	compileErr      error
)

func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for name, src := range map[string]string{
			"selection.schema.json": selectionSchemaJSON,
			"post.schema.json":      postSchemaJSON,
			"social.schema.json":    socialSchemaJSON,
		} {
			if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
				compileErr = fmt.Errorf("add schema resource %s: %w", name, err)
				return
			}
		}
		if selectionSchema, compileErr = compiler.Compile("selection.schema.json"); compileErr != nil {
			return
		}
		if postSchema, compileErr = compiler.Compile("post.schema.json"); compileErr != nil {
			return
		}
		socialSchema, compileErr = compiler.Compile("social.schema.json")
	})
	return compileErr
}

// SelectionSchema returns the JSON schema a selection response must satisfy.
func SelectionSchema() json.RawMessage { return json.RawMessage(selectionSchemaJSON) }

// PostSchema returns the JSON schema a post response must satisfy.
func PostSchema() json.RawMessage { return json.RawMessage(postSchemaJSON) }

// SocialSchema returns the JSON schema a social post response must satisfy.
func SocialSchema() json.RawMessage { return json.RawMessage(socialSchemaJSON) }

// validate decodes raw as JSON and checks it against schema, returning the decoded document.
func validate(raw string, pick func() *jsonschema.Schema) (map[string]any, error) {
	if err := compileSchemas(); err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}
	if err := pick().Validate(doc); err != nil {
		return nil, fmt.Errorf("does not match schema: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}
