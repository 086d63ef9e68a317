package utils

// IsLocationValid reports whether lat/lng are within range
func IsLocationValid(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ValidCoordinates accepts either no coordinates or a complete, in-range pair
func ValidCoordinates(lat, lng *float64) bool {
	if lat == nil && lng == nil {
		return true
	}
	if lat == nil || lng == nil {
		return false
	}
	return IsLocationValid(*lat, *lng)
}
