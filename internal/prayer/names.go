package prayer

import "fmt"

// Language selects the display names used in output.
type Language string

const (
	English Language = "en"
	Turkish Language = "tr"
)

var displayNames = map[Language][6]string{
	English: {"Fajr", "Sunrise", "Dhuhr", "Asr", "Maghrib", "Isha"},
	Turkish: {"İmsak", "Güneş", "Öğle", "İkindi", "Akşam", "Yatsı"},
}

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	if _, ok := displayNames[Language(s)]; ok {
		return Language(s), nil
	}
	return "", fmt.Errorf("unsupported language %q: must be \"en\" or \"tr\"", s)
}

// Name returns the display name of k. Unknown languages fall back to English.
func (k Key) Name(lang Language) string {
	names, ok := displayNames[lang]
	if !ok {
		names = displayNames[English]
	}
	if k < Fajr || k > Isha {
		return k.String()
	}
	return names[k]
}

// Rite describes how a prayer is performed.
type Rite struct {
	Rakats string
	Detail string
}

var rites = map[Language][6]Rite{
	English: {
		{"4 rakats", "2 sunnah, 2 fard"},
		{"Makruh time", "No prayer is performed except the Eid prayer."},
		{"10 rakats", "4 first sunnah, 4 fard, 2 last sunnah"},
		{"8 rakats", "4 sunnah, 4 fard"},
		{"5 rakats", "3 fard, 2 sunnah"},
		{"13 rakats", "4 first sunnah, 4 fard, 2 last sunnah, 3 witr"},
	},
	Turkish: {
		{"4 Rekat", "2 Sünnet, 2 Farz"},
		{"Kerahat Vakti", "Bayram namazı haricinde namaz kılınmaz."},
		{"10 Rekat", "4 İlk Sünnet, 4 Farz, 2 Son Sünnet"},
		{"8 Rekat", "4 Sünnet, 4 Farz"},
		{"5 Rekat", "3 Farz, 2 Sünnet"},
		{"13 Rekat", "4 İlk Sünnet, 4 Farz, 2 Son Sünnet, 3 Vitir"},
	},
}

// Guide returns the rite guide for k.
func Guide(k Key, lang Language) Rite {
	r, ok := rites[lang]
	if !ok {
		r = rites[English]
	}
	if k < Fajr || k > Isha {
		return Rite{}
	}
	return r[k]
}
