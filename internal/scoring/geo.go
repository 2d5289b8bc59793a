package scoring

import "math"

// defaultGeographicRangeKm is the distance at which the geographic
// signal reaches zero when the caller sets no maximum.
const defaultGeographicRangeKm = 100.0

// GeographicScore maps the distance between the patient origin and the
// facility onto [0,1], linearly from 1 at zero distance to 0 at the
// range limit. An unknown origin or facility location scores the
// neutral midpoint 0.5.
func GeographicScore(originLat, originLon *float64, facilityLat, facilityLon float64, maxDistanceKm *float64) float64 {
	if originLat == nil || originLon == nil {
		return 0.5
	}
	if facilityLat == 0 && facilityLon == 0 {
		return 0.5
	}

	rangeKm := defaultGeographicRangeKm
	if maxDistanceKm != nil && *maxDistanceKm > 0 {
		rangeKm = *maxDistanceKm
	}

	d := HaversineKm(*originLat, *originLon, facilityLat, facilityLon)
	return clamp(1-d/rangeKm, 0, 1)
}

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
