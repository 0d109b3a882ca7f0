package school

import "strings"

// Regions maps region codes to school system base URLs. Unknown or empty
// codes resolve to Default.
type Regions struct {
	Default string
	ByCode  map[string]string
}

func NewRegions(defaultURL string, byCode map[string]string) Regions {
	r := Regions{
		Default: strings.TrimSuffix(defaultURL, "/"),
		ByCode:  make(map[string]string, len(byCode)),
	}
	for code, u := range byCode {
		r.ByCode[strings.ToLower(code)] = strings.TrimSuffix(u, "/")
	}
	return r
}

func (r Regions) BaseURL(region string) string {
	if u, ok := r.ByCode[strings.ToLower(strings.TrimSpace(region))]; ok {
		return u
	}
	return r.Default
}
