package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

// StringList is a string slice persisted as a JSON array.
type StringList []string

// Value serializes the list to JSON.
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	buf, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(buf), nil
}

// Scan decodes a JSON array into the list.
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded []string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*s = decoded
	return nil
}

// Contains reports whether value is present in the list.
func (s StringList) Contains(value string) bool {
	return slices.Contains(s, value)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
