package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/bloomcart-backend/pkg/config"
)

const (
	baseETAMinutes = 30
	defaultFreeKm  = 2
)

// FeeSchedule prices delivery by straight line distance.
type FeeSchedule struct {
	PerKmFee int64
	FreeKm   float64
	RoundTo  int64
}

// ScheduleFromConfig fills zero values with the storefront defaults. A zero FreeKm
// means unset.
func ScheduleFromConfig(cfg config.ShippingConfig) FeeSchedule {
	s := FeeSchedule{PerKmFee: cfg.PerKmFee, FreeKm: cfg.FreeKm, RoundTo: cfg.RoundTo}
	if s.PerKmFee <= 0 {
		s.PerKmFee = 5000
	}
	if s.FreeKm <= 0 {
		s.FreeKm = defaultFreeKm
	}
	if s.RoundTo <= 0 {
		s.RoundTo = 1000
	}
	return s
}

// Fee is baseFee plus PerKmFee for every km beyond FreeKm, rounded up to RoundTo.
func (s FeeSchedule) Fee(baseFee int64, distanceKm float64) int64 {
	extraKm := decimal.NewFromFloat(distanceKm).Sub(decimal.NewFromFloat(s.FreeKm))
	if extraKm.IsNegative() {
		extraKm = decimal.Zero
	}
	total := decimal.NewFromInt(baseFee).Add(extraKm.Mul(decimal.NewFromInt(s.PerKmFee)))
	step := decimal.NewFromInt(s.RoundTo)
	return total.Div(step).Ceil().Mul(step).IntPart()
}

// ETAMinutes is 30 minutes plus one minute per started 100 m.
func ETAMinutes(distanceKm float64) int {
	if distanceKm <= 0 {
		return baseETAMinutes
	}
	extra := decimal.NewFromFloat(distanceKm).Mul(decimal.NewFromInt(10)).Ceil()
	return baseETAMinutes + int(extra.IntPart())
}
