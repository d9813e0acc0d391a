package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const tasksSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "text", "dueDate", "completed"],
    "properties": {
      "id": {"type": "integer"},
      "text": {"type": "string", "pattern": "\\S"},
      "dueDate": {"type": "string", "minLength": 1},
      "completed": {"type": "boolean"}
    }
  }
}`

var tasksSchema = jsonschema.MustCompileString("todos.schema.json", tasksSchemaJSON)

// ErrMalformed marks a persisted payload that is not a task collection.
var ErrMalformed = errors.New("malformed task collection")

// validatePayload checks raw against the task collection schema.
func validatePayload(raw []byte) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := tasksSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformed, schemaMessage(err))
	}
	return nil
}

func schemaMessage(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var msgs []string
	collectSchemaMessages(ve, &msgs)
	return strings.Join(msgs, "; ")
}

func collectSchemaMessages(ve *jsonschema.ValidationError, msgs *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*msgs = append(*msgs, fmt.Sprintf("%s: %s", loc, ve.Message))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaMessages(c, msgs)
	}
}
