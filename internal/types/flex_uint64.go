package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexUint64 is a primary key that can be unmarshaled from either a JSON
// number or a JSON string, as form-encoded clients send ids as strings.
type FlexUint64 uint64

// UnmarshalJSON implements the json.Unmarshaler interface.
func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexUint64(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("FlexUint64: expected number or string")
	}
	return f.parse(s)
}

// UnmarshalText lets fiber's form and query parsers fill a FlexUint64.
func (f *FlexUint64) UnmarshalText(text []byte) error {
	return f.parse(string(text))
}

func (f *FlexUint64) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	val, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("FlexUint64: invalid id %q: %w", s, err)
	}
	*f = FlexUint64(val)
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(f))
}

// Uint64 converts FlexUint64 back to uint64.
func (f FlexUint64) Uint64() uint64 {
	return uint64(f)
}
