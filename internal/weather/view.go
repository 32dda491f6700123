package weather

import "github.com/i474232898/weather-quicklook/internal/common"

// CurrentView is the render-ready current-conditions block.
type CurrentView struct {
	Icon        string `json:"icon"`
	Condition   string `json:"condition"`
	Temperature string `json:"temperature"`
	Updated     string `json:"updated"`
}

// DayView is one render-ready entry of the daily outlook.
type DayView struct {
	Date          string `json:"date"`
	Weekday       string `json:"weekday"`
	Icon          string `json:"icon"`
	Condition     string `json:"condition"`
	Min           string `json:"min"`
	Max           string `json:"max"`
	Precipitation string `json:"precipitation"`
}

// ViewModel is everything a renderer needs for one forecast.
type ViewModel struct {
	Place   string      `json:"place"`
	Unit    Unit        `json:"unit"`
	Current CurrentView `json:"current"`
	Days    []DayView   `json:"days"`
}

// Build turns a raw forecast into a ViewModel. It has one DayView per
// provider day, in provider order.
func Build(f *Forecast, label string, unit Unit) ViewModel {
	cur := f.Current()
	info := Classify(cur.Code)

	entries := f.Days()
	days := make([]DayView, 0, len(entries))
	for _, e := range entries {
		di := Classify(e.Code)
		days = append(days, DayView{
			Date:          e.Date,
			Weekday:       Weekday(e.Date),
			Icon:          di.Icon,
			Condition:     di.Label,
			Min:           FormatTemp(e.MinTempC, unit),
			Max:           FormatTemp(e.MaxTempC, unit),
			Precipitation: FormatPrecipitation(e.PrecipitationMM),
		})
	}

	return ViewModel{
		Place: label,
		Unit:  unit,
		Current: CurrentView{
			Icon:        info.Icon,
			Condition:   info.Label,
			Temperature: FormatTemp(cur.TemperatureC, unit),
			Updated:     FormatTimestamp(cur.Time),
		},
		Days: days,
	}
}

// FormatPrecipitation rounds to whole millimetres, e.g. "3 mm".
func FormatPrecipitation(mm float64) string {
	return common.FormatRounded(mm) + " mm"
}
