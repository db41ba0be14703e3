package pricing

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Discount is a whole percentage. It decodes from a number or a "N%" string
// and always encodes as a number.
type Discount int

func (d Discount) Int() int {
	return int(d)
}

func (d Discount) MarshalJSON() ([]byte, error) {
	return json.Marshal(clamp(int64(d)))
}

func (d *Discount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = 0
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("pricing: decode discount: %w", err)
	}
	*d = Discount(NormalizeDiscount(raw))
	return nil
}

func (d Discount) Value() (driver.Value, error) {
	return int64(clamp(int64(d))), nil
}

func (d *Discount) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		*d = Discount(NormalizeDiscount(string(v)))
	default:
		*d = Discount(NormalizeDiscount(v))
	}
	return nil
}
