package results

import "fmt"

// Entry is a named artifact or evidence item recorded by a step.
type Entry struct {
	Name        string
	Description string
	Type        string
	Value       Value
}

// NewEntry validates name and value and derives the type tag from the
// value's kind. Empty names, invalid values and empty strings are rejected;
// false booleans and empty collections are accepted.
func NewEntry(name string, value Value, description string) (Entry, error) {
	if name == "" {
		return Entry{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !value.IsValid() {
		return Entry{}, fmt.Errorf("%w: %q: value is required", ErrValidation, name)
	}
	if value.isEmptyString() {
		return Entry{}, fmt.Errorf("%w: %q: value must not be empty", ErrValidation, name)
	}
	return Entry{
		Name:        name,
		Description: description,
		Type:        value.Kind().String(),
		Value:       value,
	}, nil
}

func (e Entry) Equal(o Entry) bool {
	return e.Name == o.Name &&
		e.Description == o.Description &&
		e.Type == o.Type &&
		e.Value.Equal(o.Value)
}

// toMap is the report form of an entry, keyed by the entry name one level up.
func (e Entry) toMap() map[string]any {
	return map[string]any{
		"description": e.Description,
		"type":        e.Type,
		"value":       e.Value.Interface(),
	}
}
