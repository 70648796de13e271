package route

import "strings"

// regionAliases maps administrative-region abbreviations and common aliases
// to the canonical name the gateway expects. Lookup is case-insensitive;
// unmapped values pass through unchanged.
var regionAliases = map[string]string{
	"ap":          "Andhra Pradesh",
	"br":          "Bihar",
	"cg":          "Chhattisgarh",
	"dl":          "Delhi",
	"new delhi":   "Delhi",
	"ga":          "Goa",
	"gj":          "Gujarat",
	"hr":          "Haryana",
	"hp":          "Himachal Pradesh",
	"jh":          "Jharkhand",
	"ka":          "Karnataka",
	"karnatka":    "Karnataka",
	"kl":          "Kerala",
	"mp":          "Madhya Pradesh",
	"mh":          "Maharashtra",
	"od":          "Odisha",
	"orissa":      "Odisha",
	"pb":          "Punjab",
	"rj":          "Rajasthan",
	"tn":          "Tamil Nadu",
	"ts":          "Telangana",
	"tg":          "Telangana",
	"up":          "Uttar Pradesh",
	"uk":          "Uttarakhand",
	"uttaranchal": "Uttarakhand",
	"wb":          "West Bengal",
	"bengal":      "West Bengal",
}

// NormalizeRegion resolves a region abbreviation or alias to its canonical
// name. Unknown values are returned unchanged.
func NormalizeRegion(region string) string {
	trimmed := strings.TrimSpace(region)
	if trimmed == "" {
		return trimmed
	}
	if canonical, ok := regionAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
