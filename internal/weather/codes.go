package weather

// WeatherCodeInfo is the human-readable label and icon for a WMO condition code.
type WeatherCodeInfo struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

type codeEntry struct {
	codes []int
	info  WeatherCodeInfo
}

// wmoCodes is scanned in order; the first entry containing a code wins.
var wmoCodes = []codeEntry{
	{[]int{0}, WeatherCodeInfo{"Clear sky", "☀️"}},
	{[]int{1, 2, 3}, WeatherCodeInfo{"Partly cloudy", "🌤️"}},
	{[]int{45, 48}, WeatherCodeInfo{"Fog", "🌫️"}},
	{[]int{51, 53, 55}, WeatherCodeInfo{"Drizzle", "🌦️"}},
	{[]int{56, 57, 66, 67}, WeatherCodeInfo{"Freezing rain", "🧊"}},
	{[]int{61, 63, 65, 80, 81, 82}, WeatherCodeInfo{"Rain", "🌧️"}},
	{[]int{71, 73, 75, 77, 85, 86}, WeatherCodeInfo{"Snow", "❄️"}},
	{[]int{95, 96, 99}, WeatherCodeInfo{"Thunderstorm", "⛈️"}},
}

// UnknownCode is returned for codes outside the table.
var UnknownCode = WeatherCodeInfo{Label: "Unknown", Icon: "❔"}

// Classify maps a WMO weather code to its label and icon.
func Classify(code int) WeatherCodeInfo {
	for _, e := range wmoCodes {
		for _, c := range e.codes {
			if c == code {
				return e.info
			}
		}
	}
	return UnknownCode
}
