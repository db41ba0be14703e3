package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringList is stored as a JSON array in a text column so it works on postgres and sqlite alike.
type StringList []string

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = StringList{}
		return nil
	}

	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("StringList: unsupported Scan type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		*l = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fmt.Errorf("StringList: decode %q: %w", raw, err)
	}
	*l = StringList(out)
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Contains matches case-sensitively after trimming.
func (l StringList) Contains(value string) bool {
	value = strings.TrimSpace(value)
	for _, v := range l {
		if strings.TrimSpace(v) == value {
			return true
		}
	}
	return false
}
