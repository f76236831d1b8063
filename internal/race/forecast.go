package race

import (
	"fmt"
	"time"
)

// DefaultForecastThresholdDays is how far out a forecast is assumed to exist.
const DefaultForecastThresholdDays = 5

// ForecastReady reports whether raceDate is close enough to now for a weather
// forecast to exist. Races in the past satisfy the inequality and are therefore
// "ready"; the forecast provider is expected to handle those itself, this only
// decides routing.
func ForecastReady(raceDate, now time.Time, thresholdDays int) bool {
	return raceDate.Sub(now) <= time.Duration(thresholdDays)*24*time.Hour
}

// ForecastURL builds the point-forecast link for the given coordinates.
func ForecastURL(lat, lon float64) string {
	return fmt.Sprintf("https://forecast.weather.gov/MapClick.php?lon=%f&lat=%f", lon, lat)
}
