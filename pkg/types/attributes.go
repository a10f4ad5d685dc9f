package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Attributes is the opaque descriptive payload stored alongside a
// book's typed columns. It round-trips as JSON and is never interpreted
// by the lending core.
type Attributes map[string]any

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("attributes: marshal: %w", err)
	}
	return string(raw), nil
}

func (a *Attributes) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("attributes: unsupported scan type %T", value)
	}

	if len(raw) == 0 {
		*a = nil
		return nil
	}
	return json.Unmarshal(raw, a)
}
