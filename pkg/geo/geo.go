package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by Distance.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// Valid rejects NaN, infinities and out of range coordinates.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Distance returns the great-circle distance between a and b in kilometres.
func Distance(a, b Point) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// float error can push h a hair above 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Round2 rounds a distance to two decimals for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BoundingBox is an axis aligned lat/lng rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// BoundsAround returns a box that contains every point within radiusKm of center.
// It over-approximates, so callers still filter with Distance.
func BoundsAround(center Point, radiusKm float64) BoundingBox {
	if radiusKm < 0 {
		radiusKm = 0
	}
	dLat := degrees(radiusKm / EarthRadiusKm)

	box := BoundingBox{
		MinLat: math.Max(-90, center.Lat-dLat),
		MaxLat: math.Min(90, center.Lat+dLat),
		MinLng: -180,
		MaxLng: 180,
	}

	cosLat := math.Cos(radians(center.Lat))
	if cosLat > 1e-9 && box.MaxLat < 90 && box.MinLat > -90 {
		dLng := degrees(radiusKm / (EarthRadiusKm * cosLat))
		if dLng < 180 {
			box.MinLng = center.Lng - dLng
			box.MaxLng = center.Lng + dLng
		}
	}
	return box
}

// Contains reports whether p lies in the box. Boxes are not split across the antimeridian.
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
