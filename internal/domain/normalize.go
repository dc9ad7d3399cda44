package domain

// codeAliases maps legacy API pollutant codes to canonical codes.
var codeAliases = map[string]string{
	"PM": "PM2.5",
}

// NormalizeCode maps a raw API pollutant code to its canonical code. Unknown
// codes are returned unchanged.
func NormalizeCode(raw string) string {
	if canonical, ok := codeAliases[raw]; ok {
		return canonical
	}
	return raw
}
