package schema

import (
	"errors"
	"fmt"
)

// ErrSchema matches every SchemaError via errors.Is
var ErrSchema = errors.New("schema error")

// SchemaError reports a configuration defect in a model declaration.
// It is never transient and must not be retried.
type SchemaError struct {
	Model  string
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Model != "" && e.Field != "":
		return fmt.Sprintf("schema: %s.%s: %s", e.Model, e.Field, e.Reason)
	case e.Model != "":
		return fmt.Sprintf("schema: %s: %s", e.Model, e.Reason)
	default:
		return "schema: " + e.Reason
	}
}

// Is makes errors.Is(err, ErrSchema) true for any SchemaError
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func schemaErr(model, field, format string, args ...any) error {
	return &SchemaError{Model: model, Field: field, Reason: fmt.Sprintf(format, args...)}
}
