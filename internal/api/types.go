package api

// Response is the envelope returned by the Al Adhan timings endpoints.
type Response struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   Data   `json:"data"`
}

// Data holds one day's timings together with date and request metadata.
type Data struct {
	Timings Timings  `json:"timings"`
	Date    DateInfo `json:"date"`
	Meta    Meta     `json:"meta"`
}

// Timings are the six daily markers as "HH:MM" strings, possibly suffixed
// with a zone label such as " (+03)". An empty value means the provider could
// not compute that marker (high latitudes) and the entry is skipped.
type Timings struct {
	Fajr    string `json:"Fajr"`
	Sunrise string `json:"Sunrise"`
	Dhuhr   string `json:"Dhuhr"`
	Asr     string `json:"Asr"`
	Maghrib string `json:"Maghrib"`
	Isha    string `json:"Isha"`
}

// DateInfo contains the Gregorian and Hijri representation of the day.
type DateInfo struct {
	Readable  string        `json:"readable"`
	Hijri     HijriDate     `json:"hijri"`
	Gregorian GregorianDate `json:"gregorian"`
}

type HijriDate struct {
	Date  string     `json:"date"`
	Day   string     `json:"day"`
	Month HijriMonth `json:"month"`
	Year  string     `json:"year"`
}

type HijriMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
	Ar     string `json:"ar"`
}

// Format returns "DD Month YYYY AH", or "" when any part is missing.
func (h HijriDate) Format() string {
	if h.Day == "" || h.Month.En == "" || h.Year == "" {
		return ""
	}
	return h.Day + " " + h.Month.En + " " + h.Year + " AH"
}

type GregorianDate struct {
	Date  string         `json:"date"`
	Day   string         `json:"day"`
	Month GregorianMonth `json:"month"`
	Year  string         `json:"year"`
}

type GregorianMonth struct {
	Number int    `json:"number"`
	En     string `json:"en"`
}

// Meta echoes the resolved location and calculation method.
type Meta struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Method    MethodInfo `json:"method"`
}

type MethodInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// QiblaResponse is returned by /qibla/{lat}/{lon}.
type QiblaResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Direction float64 `json:"direction"`
	} `json:"data"`
}
