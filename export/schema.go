package export

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

// Validate checks a raw JSON document against the pinned configuration
// schema. It returns the first batch of violations as a single error.
func Validate(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate config document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("config document is invalid: %s", strings.Join(msgs, "; "))
}

// SchemaBytes returns the pinned JSON schema for the document, as served to
// display layers that want to generate forms from it.
func SchemaBytes() []byte {
	out := make([]byte, len(schemaJSON))
	copy(out, schemaJSON)
	return out
}

// ReflectedSchema derives a schema from the Go document types. It exists for
// introspection and drift checks against the pinned schema; Validate always
// uses the pinned one.
func ReflectedSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{DoNotReference: true}
	return r.Reflect(&Document{})
}
