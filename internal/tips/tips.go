// Package tips derives travel recommendations from current weather and region.
// Everything here is table driven and free of I/O.
package tips

import (
	"fmt"
	"math"
	"strings"

	"github.com/eugenetan01/travel-aggregator/internal/models"
)

// Band is a half-open temperature interval [Min, Max) in Celsius with its tips.
type Band struct {
	Name string
	Min  float64
	Max  float64
	Tips []string
}

// Contains reports whether t falls within the band.
func (b Band) Contains(t float64) bool {
	return t >= b.Min && t < b.Max
}

// Bands is ordered from coldest to hottest and covers the whole real line.
var Bands = []Band{
	{
		Name: "cold",
		Min:  math.Inf(-1),
		Max:  15,
		Tips: []string{
			"Bring warm layers - it's cold!",
			"Pack a good jacket and warm accessories",
		},
	},
	{
		Name: "mild",
		Min:  15,
		Max:  25,
		Tips: []string{
			"Weather is mild - pack versatile clothing",
			"Bring a light layer for cooler evenings",
		},
	},
	{
		Name: "warm",
		Min:  25,
		Max:  35,
		Tips: []string{
			"It's warm - pack breathable clothing",
			"Use sunscreen and wear a hat during the day",
		},
	},
	{
		Name: "hot",
		Min:  35,
		Max:  math.Inf(1),
		Tips: []string{
			"Pack light, breathable clothing - it's hot!",
			"Stay hydrated and avoid the midday sun",
		},
	},
}

// RegionTips holds one practical tip per region.
var RegionTips = map[models.Region]string{
	models.RegionAfrica:    "Consult a travel health clinic for vaccinations",
	models.RegionAmericas:  "Check visa requirements before traveling",
	models.RegionAntarctic: "Book through a licensed expedition operator",
	models.RegionAsia:      "Learn a few local phrases - it's appreciated!",
	models.RegionEurope:    "Consider getting a travel adapter for EU plugs",
	models.RegionOceania:   "Don't forget reef-safe sunscreen for beach visits",
}

const (
	RainTip = "Bring an umbrella or rain jacket"
	WindTip = "Wear a windproof layer and secure hats and loose belongings"
)

var (
	rainKeywords = []string{"rain", "drizzle", "shower", "thunderstorm"}
	windKeywords = []string{"wind", "gust", "gale", "breez"}
)

// BestTimes maps country codes to their recommended travel season.
var BestTimes = map[string]string{
	"JP": "March-May (cherry blossoms) or October-November (autumn colors)",
	"FR": "April-June or September-October for mild weather",
	"IT": "April-June or September-October to avoid crowds",
	"ES": "March-May or September-November for pleasant weather",
	"TH": "November-February (cool and dry season)",
	"AU": "September-November (spring) or March-May (autumn)",
	"GB": "May-September for warmer weather",
	"DE": "May-September for outdoor activities",
	"NZ": "December-February (summer) for best weather",
	"CA": "June-August for summer, December-March for skiing",
}

// BandFor returns the first band containing t.
func BandFor(t float64) (Band, bool) {
	for _, b := range Bands {
		if b.Contains(t) {
			return b, true
		}
	}
	return Band{}, false
}

// Generate returns tips in a fixed order: temperature band, region, rain, wind.
func Generate(w models.Weather, region models.Region) []string {
	var out []string
	if b, ok := BandFor(w.TemperatureCelsius); ok {
		out = append(out, b.Tips...)
	}
	if tip, ok := RegionTips[region]; ok {
		out = append(out, tip)
	}
	cond := strings.ToLower(w.Condition)
	if containsAny(cond, rainKeywords) {
		out = append(out, RainTip)
	}
	if containsAny(cond, windKeywords) {
		out = append(out, WindTip)
	}
	return out
}

// BestTimeToVisit returns the seasonal recommendation for code, or a generic
// sentence naming the region when the code has no entry.
func BestTimeToVisit(code string, region models.Region) string {
	if s, ok := BestTimes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return s
	}
	if region == "" {
		return "Research the best season before you travel"
	}
	return fmt.Sprintf("Research the best season for %s", region)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
