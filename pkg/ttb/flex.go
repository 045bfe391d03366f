package ttb

import (
	"bytes"
	"encoding/json"
	"strconv"
)

var jsonNull = []byte("null")

// FlexString decodes JSON strings and numbers alike. Any other JSON value
// decodes to the empty string instead of failing the surrounding document.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*s = ""
	if len(trimmed) == 0 || bytes.Equal(trimmed, jsonNull) {
		return nil
	}
	switch {
	case trimmed[0] == '"':
		var v string
		if err := json.Unmarshal(trimmed, &v); err == nil {
			*s = FlexString(v)
		}
	case isNumberStart(trimmed[0]):
		if v, err := strconv.ParseFloat(string(trimmed), 64); err == nil {
			*s = FlexString(strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return nil
}

// String returns the raw value.
func (s FlexString) String() string {
	return string(s)
}

// FlexNumber holds a JSON number. Valid is false when the field was absent,
// null, or not a number.
type FlexNumber struct {
	Value float64
	Valid bool
}

// Num builds a valid FlexNumber.
func Num(v float64) FlexNumber {
	return FlexNumber{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*n = FlexNumber{}
	if len(trimmed) == 0 || !isNumberStart(trimmed[0]) {
		return nil
	}
	v, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil {
		return nil
	}
	*n = FlexNumber{Value: v, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// List decodes a JSON array element by element, skipping null or malformed
// entries. A value that is not an array decodes to an empty list.
type List[T any] []T

// UnmarshalJSON implements json.Unmarshaler.
func (l *List[T]) UnmarshalJSON(data []byte) error {
	*l = nil
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make(List[T], 0, len(items))
	for _, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), jsonNull) {
			continue
		}
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

func isNumberStart(b byte) bool {
	return b == '-' || (b >= '0' && b <= '9')
}
