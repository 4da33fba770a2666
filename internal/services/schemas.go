package services

import (
  "bytes"
  "encoding/json"
  "fmt"
  "sync"

  "github.com/santhosh-tekuri/jsonschema/v6"
)

// JSON Schemas sent to the model as structured-output formats and compiled
// locally to re-check what comes back. The model is not trusted to honor the
// schema; the local check is the contract.

const (
  schemaNameOutline  = "course_outline"
  schemaNameLesson   = "lesson_content"
  schemaNamePractice = "practice_session"
)

var outlineSchema = map[string]any{
  "type": "object",
  "properties": map[string]any{
    "title": map[string]any{"type": "string", "minLength": 1},
    "chapters": map[string]any{
      "type":     "array",
      "minItems": 5,
      "maxItems": 10,
      "items": map[string]any{
        "type": "object",
        "properties": map[string]any{
          "title": map[string]any{"type": "string", "minLength": 1},
          "lessons": map[string]any{
            "type":     "array",
            "minItems": 3,
            "maxItems": 7,
            "items": map[string]any{
              "type": "object",
              "properties": map[string]any{
                "title": map[string]any{"type": "string", "minLength": 1},
              },
              "required":             []any{"title"},
              "additionalProperties": false,
            },
          },
        },
        "required":             []any{"title", "lessons"},
        "additionalProperties": false,
      },
    },
  },
  "required":             []any{"title", "chapters"},
  "additionalProperties": false,
}

var lessonContentSchema = map[string]any{
  "type": "object",
  "properties": map[string]any{
    "blocks": map[string]any{
      "type":     "array",
      "minItems": 1,
      "items": map[string]any{
        "anyOf": []any{
          map[string]any{
            "type": "object",
            "properties": map[string]any{
              "kind":    map[string]any{"const": "text"},
              "content": map[string]any{"type": "string", "minLength": 1},
            },
            "required":             []any{"kind", "content"},
            "additionalProperties": false,
          },
          map[string]any{
            "type": "object",
            "properties": map[string]any{
              "kind":            map[string]any{"const": "interactive_code"},
              "description":     map[string]any{"type": "string", "minLength": 1},
              "expected_output": map[string]any{"type": "string"},
            },
            "required":             []any{"kind", "description", "expected_output"},
            "additionalProperties": false,
          },
        },
      },
    },
  },
  "required":             []any{"blocks"},
  "additionalProperties": false,
}

var practiceSessionSchema = map[string]any{
  "type": "object",
  "properties": map[string]any{
    "questions": map[string]any{
      "type":     "array",
      "minItems": 3,
      "maxItems": 3,
      "items": map[string]any{
        "type": "object",
        "properties": map[string]any{
          "question": map[string]any{"type": "string", "minLength": 1},
          "options": map[string]any{
            "type":     "array",
            "minItems": 4,
            "maxItems": 4,
            "items":    map[string]any{"type": "string"},
          },
          "correct_answer": map[string]any{"type": "string"},
        },
        "required":             []any{"question", "options", "correct_answer"},
        "additionalProperties": false,
      },
    },
    "exercises": map[string]any{
      "type":     "array",
      "minItems": 3,
      "maxItems": 3,
      "items": map[string]any{
        "type": "object",
        "properties": map[string]any{
          "problem":   map[string]any{"type": "string", "minLength": 1},
          "solution":  map[string]any{"type": "string", "minLength": 1},
          "test_case": map[string]any{"type": "string", "minLength": 1},
        },
        "required":             []any{"problem", "solution", "test_case"},
        "additionalProperties": false,
      },
    },
  },
  "required":             []any{"questions", "exercises"},
  "additionalProperties": false,
}

var compiledSchemas sync.Map // map[string]*jsonschema.Schema

func compiledSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
  if cached, ok := compiledSchemas.Load(name); ok {
    return cached.(*jsonschema.Schema), nil
  }

  defBytes, err := json.Marshal(def)
  if err != nil {
    return nil, fmt.Errorf("marshal schema %q: %w", name, err)
  }
  doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
  if err != nil {
    return nil, fmt.Errorf("parse schema %q: %w", name, err)
  }

  compiler := jsonschema.NewCompiler()
  url := name + ".json"
  if err := compiler.AddResource(url, doc); err != nil {
    return nil, fmt.Errorf("add schema %q: %w", name, err)
  }
  compiled, err := compiler.Compile(url)
  if err != nil {
    return nil, fmt.Errorf("compile schema %q: %w", name, err)
  }

  compiledSchemas.Store(name, compiled)
  return compiled, nil
}

// validateAgainstSchema re-checks a model response against the schema that
// was requested.
func validateAgainstSchema(name string, def map[string]any, raw json.RawMessage) error {
  compiled, err := compiledSchema(name, def)
  if err != nil {
    return err
  }
  var parsed any
  if err := json.Unmarshal(raw, &parsed); err != nil {
    return fmt.Errorf("response is not valid JSON: %w", err)
  }
  if err := compiled.Validate(parsed); err != nil {
    return fmt.Errorf("response violates schema %q: %w", name, err)
  }
  return nil
}
