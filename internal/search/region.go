package search

import "strings"

// Region is the provider localization triple derived from the traveler's
// origin country. It affects the provider's language/geo parameters only,
// never the query text.
type Region struct {
	Language string
	Country  string
	Location string
}

var regionTable = []struct {
	needles []string
	region  Region
}{
	{[]string{"perú", "peru"}, Region{"es", "pe", "Peru"}},
	{[]string{"españ", "spain"}, Region{"es", "es", "Spain"}},
	{[]string{"méxic", "mexico"}, Region{"es", "mx", "Mexico"}},
	{[]string{"argentin"}, Region{"es", "ar", "Argentina"}},
	{[]string{"colombi"}, Region{"es", "co", "Colombia"}},
	{[]string{"chin"}, Region{"zh-cn", "cn", "China"}},
	{[]string{"japón", "japon", "japan"}, Region{"ja", "jp", "Japan"}},
	{[]string{"estados unidos", "ee.uu", "usa"}, Region{"en", "us", "United States"}},
}

// RegionFor maps substrings of the origin country (case-insensitive) to a
// localization triple over a fixed shortlist. Unknown or empty input falls
// back to Spanish/Spain.
func RegionFor(originCountry string) Region {
	lower := strings.ToLower(strings.TrimSpace(originCountry))
	if lower != "" {
		for _, entry := range regionTable {
			for _, needle := range entry.needles {
				if strings.Contains(lower, needle) {
					return entry.region
				}
			}
		}
	}
	return Region{"es", "es", "Spain"}
}
