package enums

import (
	"fmt"
	"strings"
)

// PromotionScope limits where a promotion applies.
type PromotionScope string

const (
	PromotionScopeAll      PromotionScope = "ALL"
	PromotionScopeDistrict PromotionScope = "DISTRICT"
	PromotionScopeStore    PromotionScope = "STORE"
)

var validPromotionScopes = []PromotionScope{
	PromotionScopeAll,
	PromotionScopeDistrict,
	PromotionScopeStore,
}

func (s PromotionScope) String() string {
	return string(s)
}

func (s PromotionScope) IsValid() bool {
	for _, candidate := range validPromotionScopes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePromotionScope is case-insensitive.
func ParsePromotionScope(value string) (PromotionScope, error) {
	upper := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validPromotionScopes {
		if string(candidate) == upper {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid promotion scope %q", value)
}
