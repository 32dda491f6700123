package weather

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is a resolved location: a display label plus the coordinates used
// for forecast lookups. The raw name parts are kept for relabeling.
type Place struct {
	DisplayName string  `json:"displayName"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`

	Name    string `json:"name,omitempty"`
	Admin1  string `json:"admin1,omitempty"`
	Country string `json:"country,omitempty"`
}

// NewPlace builds a Place from geocoding parts, deriving the display label.
func NewPlace(name, admin1, country string, lat, lon float64) Place {
	return Place{
		DisplayName: PlaceLabel(name, admin1, country),
		Latitude:    lat,
		Longitude:   lon,
		Name:        name,
		Admin1:      admin1,
		Country:     country,
	}
}

// PlaceAt synthesizes a Place for bare coordinates when no name is known.
func PlaceAt(c Coordinates) Place {
	return Place{
		DisplayName: CoordinateLabel(c.Latitude, c.Longitude),
		Latitude:    c.Latitude,
		Longitude:   c.Longitude,
	}
}

// Coordinates returns the place position.
func (p Place) Coordinates() Coordinates {
	return Coordinates{Latitude: p.Latitude, Longitude: p.Longitude}
}

// CurrentWeather is the provider's current-conditions block.
type CurrentWeather struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	WeatherCode int     `json:"weathercode"`
	WindSpeed   float64 `json:"windspeed,omitempty"`
}

// DailySeries holds the provider's daily aggregates as parallel arrays.
// All slices are index-aligned with Time.
type DailySeries struct {
	Time             []string  `json:"time"`
	WeatherCode      []int     `json:"weathercode"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
}

// Forecast is the raw forecast response as returned by the provider.
type Forecast struct {
	Latitude       float64        `json:"latitude"`
	Longitude      float64        `json:"longitude"`
	Timezone       string         `json:"timezone"`
	CurrentWeather CurrentWeather `json:"current_weather"`
	Daily          DailySeries    `json:"daily"`
}

// CurrentConditions is the normalized current-conditions reading.
type CurrentConditions struct {
	Time         string
	TemperatureC float64
	Code         int
}

// DailyForecastEntry is one day of the outlook. Entries keep provider order.
type DailyForecastEntry struct {
	Date            string
	MinTempC        float64
	MaxTempC        float64
	PrecipitationMM float64
	Code            int
}

// Current returns the current-conditions reading.
func (f *Forecast) Current() CurrentConditions {
	return CurrentConditions{
		Time:         f.CurrentWeather.Time,
		TemperatureC: f.CurrentWeather.Temperature,
		Code:         f.CurrentWeather.WeatherCode,
	}
}

// Days zips the daily arrays into entries, one per element of Daily.Time.
// A shorter companion array yields zero values for the missing tail.
func (f *Forecast) Days() []DailyForecastEntry {
	d := f.Daily
	out := make([]DailyForecastEntry, 0, len(d.Time))
	for i, date := range d.Time {
		out = append(out, DailyForecastEntry{
			Date:            date,
			MinTempC:        at(d.Temperature2mMin, i),
			MaxTempC:        at(d.Temperature2mMax, i),
			PrecipitationMM: at(d.PrecipitationSum, i),
			Code:            at(d.WeatherCode, i),
		})
	}
	return out
}

func at[T any](s []T, i int) T {
	var zero T
	if i < len(s) {
		return s[i]
	}
	return zero
}
