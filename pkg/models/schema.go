package models

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// workflowDocumentSchema validates raw workflow documents at the API boundary
// before they are bound to the typed model. It guards field types rather than
// routing semantics; those are checked by Workflow.Validate.
const workflowDocumentSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": ["string", "null"]},
    "metadata": {"type": "object"},
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "id": {"type": "string"},
          "name": {"type": "string", "minLength": 1},
          "prompt": {"type": "string"},
          "metadata": {"type": "object"},
          "routing_rules": {
            "type": "object",
            "properties": {
              "default_target": {"type": "string", "minLength": 1},
              "conditional_targets": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["output_key", "target_node_id"],
                  "properties": {
                    "output_key": {"type": "string", "minLength": 1},
                    "target_node_id": {"type": "string", "minLength": 1}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var workflowSchema = gojsonschema.NewStringLoader(workflowDocumentSchema)

// ValidateWorkflowDocument checks a raw JSON workflow document against the
// document schema and returns a single aggregated error.
func ValidateWorkflowDocument(raw []byte) error {
	result, err := gojsonschema.Validate(workflowSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("workflow document is not valid JSON: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}

	return fmt.Errorf("invalid workflow document: %s", strings.Join(details, "; "))
}
