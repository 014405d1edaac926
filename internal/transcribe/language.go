package transcribe

import (
	"strings"

	"golang.org/x/text/language"
)

// Common language names accepted by the whisper CLI alongside ISO codes.
// Covers names users type where a tag is expected.
var languageNames = map[string]string{
	"english":    "en",
	"japanese":   "ja",
	"chinese":    "zh",
	"mandarin":   "zh",
	"cantonese":  "yue",
	"korean":     "ko",
	"french":     "fr",
	"german":     "de",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"dutch":      "nl",
	"arabic":     "ar",
	"hindi":      "hi",
	"thai":       "th",
	"vietnamese": "vi",
}

// NormalizeLanguage reduces a user-supplied hint ("Japanese", "ja", "ja-JP")
// to the base language code the engine expects. An empty result means
// auto-detection.
func NormalizeLanguage(hint string) string {
	trimmed := strings.TrimSpace(hint)
	if trimmed == "" {
		return ""
	}
	if code, ok := languageNames[strings.ToLower(trimmed)]; ok {
		return code
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return strings.ToLower(trimmed)
	}
	base, _ := tag.Base()
	return base.String()
}
