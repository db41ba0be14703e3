package shipping

import (
	"testing"

	"github.com/angelmondragon/bloomcart-backend/pkg/config"
)

func defaultSchedule() FeeSchedule {
	return ScheduleFromConfig(config.ShippingConfig{})
}

func TestFeeExamples(t *testing.T) {
	s := defaultSchedule()
	cases := []struct {
		name     string
		base     int64
		distance float64
		want     int64
	}{
		{"at free radius", 15000, 2.0, 15000},
		{"four km", 15000, 4.0, 25000},
		{"inside free radius", 15000, 0.5, 15000},
		{"zero distance", 15000, 0, 15000},
		{"rounds up", 15000, 2.13, 16000},
		{"base rounds up", 15500, 0, 16000},
		{"fractional km", 15000, 3.5, 23000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Fee(tc.base, tc.distance); got != tc.want {
				t.Fatalf("Fee(%d, %.2f) = %d, want %d", tc.base, tc.distance, got, tc.want)
			}
		})
	}
}

func TestScheduleFromConfigDefaultsUnsetFields(t *testing.T) {
	s := ScheduleFromConfig(config.ShippingConfig{PerKmFee: 4000})
	if s.FreeKm != 2 || s.RoundTo != 1000 || s.PerKmFee != 4000 {
		t.Fatalf("unexpected schedule %+v", s)
	}
	if got := s.Fee(15000, 2.0); got != 15000 {
		t.Fatalf("expected base fee inside free radius, got %d", got)
	}
	if got := s.Fee(15000, 4.0); got != 23000 {
		t.Fatalf("expected 23000 at 4 km, got %d", got)
	}

	custom := ScheduleFromConfig(config.ShippingConfig{FreeKm: 3.5})
	if custom.FreeKm != 3.5 {
		t.Fatalf("expected configured free radius to be kept, got %v", custom.FreeKm)
	}
}

func TestFeeMonotonicInDistance(t *testing.T) {
	s := defaultSchedule()
	prev := s.Fee(15000, 0)
	for d := 0.0; d <= 12; d += 0.01 {
		fee := s.Fee(15000, d)
		if fee < prev {
			t.Fatalf("fee decreased at %.2f km: %d < %d", d, fee, prev)
		}
		if d <= 2 && fee != 15000 {
			t.Fatalf("expected flat base fee at %.2f km, got %d", d, fee)
		}
		if fee%1000 != 0 {
			t.Fatalf("fee %d not rounded to 1000", fee)
		}
		prev = fee
	}
}

func TestETAMinutes(t *testing.T) {
	cases := map[float64]int{
		0:    30,
		0.7:  37,
		1.23: 43,
		4:    70,
		10:   130,
	}
	for d, want := range cases {
		if got := ETAMinutes(d); got != want {
			t.Fatalf("ETAMinutes(%.2f) = %d, want %d", d, got, want)
		}
	}
}
