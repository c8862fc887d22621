package i18n

import "strings"

var languageNames = map[string]string{
	"en": "English",
	"ru": "Russian",
	"zh": "Chinese",
}

func GetLanguageName(code string) string {
	normalized := strings.ToLower(code)
	if name, ok := languageNames[normalized]; ok {
		return name
	}
	return code
}

// Normalize maps a client language code such as "zh-hans" onto a supported catalogue, "" when unsupported.
func Normalize(code string) string {
	normalized := strings.ToLower(code)
	if i := strings.IndexAny(normalized, "-_"); i > 0 {
		normalized = normalized[:i]
	}
	if _, ok := languageNames[normalized]; ok {
		return normalized
	}
	return ""
}
