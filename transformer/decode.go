package transformer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// DecodeError is returned when a JSON text field of an entity cannot be
// decoded. It fails the whole transformation.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("transformer: could not decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// decodeStructured turns a stored JSON text into a raw JSON value. Comments
// and trailing commas are accepted. Empty text decodes to null.
func decodeStructured(field, text string) (json.RawMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, jsonc.ToJSON([]byte(text))); err != nil {
		return nil, &DecodeError{Field: field, Err: err}
	}
	return buf.Bytes(), nil
}
