package lang

// Language pairs a display name with the voice locale the frontend
// uses for speech synthesis.
type Language struct {
	Name  string `json:"name"`
	Voice string `json:"voice"`
}

// Supported is the static language table. Fixed at startup; codes are
// two-letter ISO 639-1.
var Supported = map[string]Language{
	"en": {Name: "English", Voice: "en-US"},
	"es": {Name: "Spanish", Voice: "es-ES"},
	"fr": {Name: "French", Voice: "fr-FR"},
	"de": {Name: "German", Voice: "de-DE"},
	"it": {Name: "Italian", Voice: "it-IT"},
	"pt": {Name: "Portuguese", Voice: "pt-BR"},
	"ru": {Name: "Russian", Voice: "ru-RU"},
	"zh": {Name: "Chinese", Voice: "zh-CN"},
	"ja": {Name: "Japanese", Voice: "ja-JP"},
	"ko": {Name: "Korean", Voice: "ko-KR"},
	"ar": {Name: "Arabic", Voice: "ar-SA"},
	"hi": {Name: "Hindi", Voice: "hi-IN"},
}

// DisplayName returns the language name for a code, falling back to
// English for unknown codes. The code itself is never validated.
func DisplayName(code string) string {
	if l, ok := Supported[code]; ok {
		return l.Name
	}
	return "English"
}
