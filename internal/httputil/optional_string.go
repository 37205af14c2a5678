package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString records whether a JSON field was sent at all, which a plain
// string cannot tell apart from an empty value. Value is nil for JSON null.
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON implements json.Unmarshaler. It only runs for fields present
// in the document.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Get returns the value and whether a non-null string was sent.
func (o OptionalString) Get() (string, bool) {
	if !o.Present || o.Value == nil {
		return "", false
	}
	return *o.Value, true
}
