package api

// Method is a calculation method the provider accepts as ?method=.
type Method struct {
	ID   int
	Name string
}

// Methods lists the provider's calculation methods by id. Id 6 is unused.
var Methods = []Method{
	{0, "Shia Ithna-Ashari (Jafari)"},
	{1, "University of Islamic Sciences, Karachi"},
	{2, "Islamic Society of North America (ISNA)"},
	{3, "Muslim World League (MWL)"},
	{4, "Umm Al-Qura University, Makkah"},
	{5, "Egyptian General Authority of Survey"},
	{7, "Institute of Geophysics, University of Tehran"},
	{8, "Gulf Region"},
	{9, "Kuwait"},
	{10, "Qatar"},
	{11, "Majlis Ugama Islam Singapura (Singapore)"},
	{12, "Union Organization Islamic de France"},
	{13, "Diyanet Isleri Baskanligi, Turkey"},
	{14, "Spiritual Administration of Muslims of Russia"},
	{15, "Moonsighting Committee Worldwide"},
	{16, "Dubai (experimental)"},
	{17, "JAKIM (Malaysia)"},
	{18, "Tunisia"},
	{19, "Algeria"},
	{20, "KEMENAG (Indonesia)"},
	{21, "Morocco"},
	{22, "Comunidade Islamica de Lisboa (Portugal)"},
	{23, "Ministry of Awqaf, Jordan"},
}

// MethodName returns the name of method id.
func MethodName(id int) (string, bool) {
	for _, m := range Methods {
		if m.ID == id {
			return m.Name, true
		}
	}
	return "", false
}

// SchoolName returns the juristic school for the asr ?school= value.
func SchoolName(id int) (string, bool) {
	switch id {
	case 0:
		return "Shafi", true
	case 1:
		return "Hanafi", true
	}
	return "", false
}
