package users

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/userdb/userdb/internal/config"
)

// Field kinds accepted in a schema declaration
const (
	FieldTypeAny     = "any"
	FieldTypeString  = "string"
	FieldTypeNumber  = "number"
	FieldTypeBoolean = "boolean"
	FieldTypeObject  = "object"
	FieldTypeArray   = "array"
)

// Field describes one declared user field
type Field struct {
	Type     string
	Required bool
}

// Schema is the declared shape of a user document. It only enforces basic
// typing; the zero value accepts every document unchanged.
type Schema struct {
	Strict bool
	Fields map[string]Field
}

// NewSchema builds a schema from its configuration.
func NewSchema(cfg config.SchemaConfig) (*Schema, error) {
	schema := &Schema{
		Strict: cfg.Strict,
		Fields: make(map[string]Field, len(cfg.Fields)),
	}

	for name, field := range cfg.Fields {
		if name == IDField {
			return nil, fmt.Errorf("field %q is assigned by the store and cannot be declared", IDField)
		}

		fieldType := strings.ToLower(strings.TrimSpace(field.Type))
		if fieldType == "" {
			fieldType = FieldTypeAny
		}
		switch fieldType {
		case FieldTypeAny, FieldTypeString, FieldTypeNumber, FieldTypeBoolean, FieldTypeObject, FieldTypeArray:
		default:
			return nil, fmt.Errorf("field %q has unsupported type %q", name, field.Type)
		}

		schema.Fields[name] = Field{Type: fieldType, Required: field.Required}
	}

	return schema, nil
}

// Apply validates doc against the schema and returns a copy with declared
// fields coerced to their types. Required fields are only enforced when
// partial is false.
func (s *Schema) Apply(doc Document, partial bool) (Document, error) {
	out := doc.Clone()
	if out == nil {
		out = Document{}
	}
	if s == nil {
		return out, nil
	}

	if !partial {
		for _, name := range s.sortedFieldNames() {
			if !s.Fields[name].Required {
				continue
			}
			if value, ok := out[name]; !ok || value == nil {
				return nil, NewValidationError(name, nil, "field is required")
			}
		}
	}

	for name, value := range out {
		if name == IDField {
			continue
		}

		field, declared := s.Fields[name]
		if !declared {
			if s.Strict {
				return nil, NewValidationError(name, value, "field is not declared")
			}
			continue
		}

		// null clears a field in a patch and is left to the store
		if value == nil {
			continue
		}

		coerced, err := coerce(field.Type, value)
		if err != nil {
			return nil, NewValidationError(name, value, err.Error())
		}
		out[name] = coerced
	}

	return out, nil
}

func (s *Schema) sortedFieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// coerce converts value to fieldType where the conversion is unambiguous.
func coerce(fieldType string, value any) (any, error) {
	switch fieldType {
	case FieldTypeAny:
		return value, nil

	case FieldTypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		case bool:
			return strconv.FormatBool(v), nil
		}

	case FieldTypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err == nil {
				return n, nil
			}
		}

	case FieldTypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true":
				return true, nil
			case "false":
				return false, nil
			}
		}

	case FieldTypeObject:
		if v, ok := value.(map[string]any); ok {
			return v, nil
		}

	case FieldTypeArray:
		if v, ok := value.([]any); ok {
			return v, nil
		}
	}

	return nil, fmt.Errorf("cannot cast %T to %s", value, fieldType)
}
