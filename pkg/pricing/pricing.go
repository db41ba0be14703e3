package pricing

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	MinDiscount = 0
	MaxDiscount = 100
)

var hundred = decimal.NewFromInt(100)

// NormalizeDiscount converts the loose discount representations seen in product payloads
// (numbers, "25", "25%", nil) into an integer percentage in [0, 100].
// Strings keep their leading integer ("12.5%" is 12, "1e2" is 1) and fractional
// numbers are truncated. Anything without digits is 0. Applying it to its own
// output is a no-op.
func NormalizeDiscount(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case int:
		return clamp(int64(v))
	case int32:
		return clamp(int64(v))
	case int64:
		return clamp(v)
	case uint:
		return clampFloat(float64(v))
	case float32:
		return clampFloat(float64(v))
	case float64:
		return clampFloat(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return clampFloat(f)
	case Discount:
		return clamp(int64(v))
	case *Discount:
		if v == nil {
			return 0
		}
		return clamp(int64(*v))
	case string:
		return parseLeadingInt(v)
	default:
		return 0
	}
}

func clamp(v int64) int {
	if v < MinDiscount {
		return MinDiscount
	}
	if v > MaxDiscount {
		return MaxDiscount
	}
	return int(v)
}

func clampFloat(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	if f >= MaxDiscount {
		return MaxDiscount
	}
	if f <= MinDiscount {
		return MinDiscount
	}
	return int(f)
}

// parseLeadingInt reads an optional sign and the digits that follow it, after
// trimming spaces and a trailing "%".
func parseLeadingInt(raw string) int {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		if s[0] == '-' {
			return MinDiscount
		}
		return MaxDiscount
	}
	return clamp(n)
}

// FinalBasePrice adds the district surcharge to the catalogue base price.
func FinalBasePrice(basePrice, additional int64) int64 {
	return basePrice + additional
}

// Payable applies a percentage discount to price, rounding half away from zero to whole units.
func Payable(price int64, discount int) int64 {
	d := NormalizeDiscount(discount)
	if d <= 0 {
		return price
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(d))).Div(hundred)
	return decimal.NewFromInt(price).Mul(factor).Round(0).IntPart()
}

// Quote is the regional price breakdown for one product.
type Quote struct {
	BasePrice       int64    `json:"base_price"`
	AdditionalPrice int64    `json:"additional_price"`
	FinalBasePrice  int64    `json:"final_base_price"`
	Discount        Discount `json:"discount"`
	Price           int64    `json:"price"`
}

// Resolve computes the full price breakdown. raw discount goes through NormalizeDiscount.
func Resolve(basePrice, additional int64, rawDiscount any) Quote {
	discount := NormalizeDiscount(rawDiscount)
	final := FinalBasePrice(basePrice, additional)
	return Quote{
		BasePrice:       basePrice,
		AdditionalPrice: additional,
		FinalBasePrice:  final,
		Discount:        Discount(discount),
		Price:           Payable(final, discount),
	}
}
