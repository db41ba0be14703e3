package types

import (
	"strings"

	"github.com/google/uuid"
)

// Region is the shopper's delivery context. StoreID, when set, pins every
// regional lookup to that single store and takes precedence over District.
type Region struct {
	District string     `json:"district,omitempty"`
	Ward     string     `json:"ward,omitempty"`
	StoreID  *uuid.UUID `json:"store_id,omitempty"`
}

// NewRegion trims the text parts. An empty ward is kept empty.
func NewRegion(district, ward string, storeID *uuid.UUID) Region {
	r := Region{
		District: strings.TrimSpace(district),
		Ward:     strings.TrimSpace(ward),
	}
	if storeID != nil && *storeID != uuid.Nil {
		id := *storeID
		r.StoreID = &id
	}
	return r
}

func (r Region) HasStore() bool {
	return r.StoreID != nil && *r.StoreID != uuid.Nil
}

func (r Region) HasDistrict() bool {
	return strings.TrimSpace(r.District) != ""
}

// IsZero means no regional restriction: aggregate stock and base prices apply.
func (r Region) IsZero() bool {
	return !r.HasStore() && !r.HasDistrict()
}
