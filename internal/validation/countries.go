package validation

import "sort"

// Country is a supported country of a phone number
type Country struct {
	ISO         string `json:"iso"`
	Name        string `json:"name"`
	CallingCode string `json:"calling_code"` // digits only, without '+'
}

// blockedCallingCode is rejected before the allow-list is consulted.
const blockedCallingCode = "7"

// supportedCountries holds the EU member states plus Switzerland and Ukraine.
var supportedCountries = []Country{
	{ISO: "AT", Name: "Austria", CallingCode: "43"},
	{ISO: "BE", Name: "Belgium", CallingCode: "32"},
	{ISO: "BG", Name: "Bulgaria", CallingCode: "359"},
	{ISO: "HR", Name: "Croatia", CallingCode: "385"},
	{ISO: "CY", Name: "Cyprus", CallingCode: "357"},
	{ISO: "CZ", Name: "Czechia", CallingCode: "420"},
	{ISO: "DK", Name: "Denmark", CallingCode: "45"},
	{ISO: "EE", Name: "Estonia", CallingCode: "372"},
	{ISO: "FI", Name: "Finland", CallingCode: "358"},
	{ISO: "FR", Name: "France", CallingCode: "33"},
	{ISO: "DE", Name: "Germany", CallingCode: "49"},
	{ISO: "GR", Name: "Greece", CallingCode: "30"},
	{ISO: "HU", Name: "Hungary", CallingCode: "36"},
	{ISO: "IE", Name: "Ireland", CallingCode: "353"},
	{ISO: "IT", Name: "Italy", CallingCode: "39"},
	{ISO: "LV", Name: "Latvia", CallingCode: "371"},
	{ISO: "LT", Name: "Lithuania", CallingCode: "370"},
	{ISO: "LU", Name: "Luxembourg", CallingCode: "352"},
	{ISO: "MT", Name: "Malta", CallingCode: "356"},
	{ISO: "NL", Name: "Netherlands", CallingCode: "31"},
	{ISO: "PL", Name: "Poland", CallingCode: "48"},
	{ISO: "PT", Name: "Portugal", CallingCode: "351"},
	{ISO: "RO", Name: "Romania", CallingCode: "40"},
	{ISO: "SK", Name: "Slovakia", CallingCode: "421"},
	{ISO: "SI", Name: "Slovenia", CallingCode: "386"},
	{ISO: "ES", Name: "Spain", CallingCode: "34"},
	{ISO: "SE", Name: "Sweden", CallingCode: "46"},
	{ISO: "CH", Name: "Switzerland", CallingCode: "41"},
	{ISO: "UA", Name: "Ukraine", CallingCode: "380"},
}

// byPrefixLength is supportedCountries ordered longest calling code first so
// that prefix matching never picks a shorter code that is a prefix of a longer one.
var byPrefixLength = func() []Country {
	out := make([]Country, len(supportedCountries))
	copy(out, supportedCountries)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].CallingCode) > len(out[j].CallingCode)
	})
	return out
}()

// SupportedCountries returns a copy of the allow-list
func SupportedCountries() []Country {
	out := make([]Country, len(supportedCountries))
	copy(out, supportedCountries)
	return out
}

// AlternateCountries returns the countries offered to a user whose number was
// rejected because of the blocked calling code. Switzerland and Ukraine come first.
func AlternateCountries() []Country {
	out := make([]Country, 0, len(supportedCountries))
	for _, iso := range []string{"CH", "UA"} {
		if c, ok := CountryByISO(iso); ok {
			out = append(out, c)
		}
	}
	for _, c := range supportedCountries {
		if c.ISO != "CH" && c.ISO != "UA" {
			out = append(out, c)
		}
	}
	return out
}

// CountryByISO looks up an allow-listed country by ISO 3166 alpha-2 code
func CountryByISO(iso string) (Country, bool) {
	for _, c := range supportedCountries {
		if c.ISO == iso {
			return c, true
		}
	}
	return Country{}, false
}
