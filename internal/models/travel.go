package models

// Region is the continental grouping reported by the country-data provider.
type Region string

const (
	RegionAfrica    Region = "Africa"
	RegionAmericas  Region = "Americas"
	RegionAntarctic Region = "Antarctic"
	RegionAsia      Region = "Asia"
	RegionEurope    Region = "Europe"
	RegionOceania   Region = "Oceania"
)

// Country is the canonical record for one country.
type Country struct {
	Code       string   `json:"country_code"`
	Name       string   `json:"country_name"`
	Capital    string   `json:"capital"`
	Region     Region   `json:"region"`
	Population int64    `json:"population"`
	Currencies []string `json:"currencies"`
	Languages  []string `json:"languages"`
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are within geographic bounds.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Weather is a current-conditions observation at a named location.
type Weather struct {
	Location           string  `json:"location"`
	TemperatureCelsius float64 `json:"temperature_celsius"`
	Condition          string  `json:"weather_description"`
	HumidityPercent    int     `json:"humidity"`
	WindSpeedKmh       float64 `json:"wind_speed_kmh"`
}

// TravelSummary combines a country record, the weather at its capital and the derived tips.
type TravelSummary struct {
	Country
	CurrentWeather  Weather  `json:"current_weather"`
	TravelTips      []string `json:"travel_tips"`
	BestTimeToVisit string   `json:"best_time_to_visit"`
}

// CountryCode is the result of a name search.
type CountryCode struct {
	Code string `json:"country_code"`
	Name string `json:"country_name"`
}
