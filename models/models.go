package models

// Color is a 24-bit RGB value packed as 0xRRGGBB, matching the palette the
// LED matrix firmware used.
type Color uint32

// Display palette.
const (
	ColorDescription Color = 0x00D3FF // cyan, default text
	ColorAlert       Color = 0xFF0000 // red, failure states
	ColorAmber       Color = 0xCC4000
	ColorTemperature Color = 0xFFA800
)

// GeoPoint is an approximate device position from IP geolocation.
// It is resolved once and reused for the process lifetime.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// WeatherSample is the rendered weather snapshot. It is rebuilt wholesale on
// each refresh. The current-conditions half and the forecast half can each be
// missing independently; nil means that half was not available.
type WeatherSample struct {
	CurrentTempF  *int
	ConditionText string

	ForecastTempF *int // temperature closest to now+6h

	Day1Label string
	Day1HighF *int
	Day2Label string
	Day2HighF *int
}
