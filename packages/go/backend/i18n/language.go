package i18n

import (
	"fmt"
	"sort"
)

// LanguageCode identifies a supported UI and voice language.
type LanguageCode string

const (
	English LanguageCode = "en"
	Hindi   LanguageCode = "hi"
	Punjabi LanguageCode = "pa"
)

// DefaultLanguage is the language every other bundle falls back to.
const DefaultLanguage = English

// Descriptor maps a language to the strings the speech and generation
// collaborators need.
type Descriptor struct {
	Code                LanguageCode `json:"code"`
	DisplayName         string       `json:"displayName"`
	EnglishName         string       `json:"englishName"`
	SpeechSynthesisCode string       `json:"speechSynthesisCode"`
	PromptPreamble      string       `json:"-"`
	RTL                 bool         `json:"rtl"`
}

var descriptors = map[LanguageCode]Descriptor{
	English: {
		Code:                English,
		DisplayName:         "English",
		EnglishName:         "English",
		SpeechSynthesisCode: "en-IN",
		PromptPreamble: "You are an agricultural advisor for Indian farmers. " +
			"Reply in simple English in at most four short sentences with practical steps. " +
			"Farmer's question: ",
	},
	Hindi: {
		Code:                Hindi,
		DisplayName:         "हिन्दी",
		EnglishName:         "Hindi",
		SpeechSynthesisCode: "hi-IN",
		PromptPreamble: "आप भारतीय किसानों के कृषि सलाहकार हैं। " +
			"सरल हिंदी में अधिकतम चार छोटे वाक्यों में व्यावहारिक सलाह दें। " +
			"किसान का प्रश्न: ",
	},
	Punjabi: {
		Code:                Punjabi,
		DisplayName:         "ਪੰਜਾਬੀ",
		EnglishName:         "Punjabi",
		SpeechSynthesisCode: "pa-IN",
		PromptPreamble: "ਤੁਸੀਂ ਭਾਰਤੀ ਕਿਸਾਨਾਂ ਦੇ ਖੇਤੀਬਾੜੀ ਸਲਾਹਕਾਰ ਹੋ। " +
			"ਸਧਾਰਨ ਪੰਜਾਬੀ ਵਿੱਚ ਵੱਧ ਤੋਂ ਵੱਧ ਚਾਰ ਛੋਟੇ ਵਾਕਾਂ ਵਿੱਚ ਵਿਹਾਰਕ ਸਲਾਹ ਦਿਓ। " +
			"ਕਿਸਾਨ ਦਾ ਸਵਾਲ: ",
	},
}

// LookupDescriptor returns the static descriptor registered for code.
func LookupDescriptor(code LanguageCode) (Descriptor, bool) {
	d, ok := descriptors[code]
	return d, ok
}

func registeredCodes() []LanguageCode {
	codes := make([]LanguageCode, 0, len(descriptors))
	for code := range descriptors {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// UnsupportedLanguageError is returned when a language has no descriptor or
// no loaded bundle.
type UnsupportedLanguageError struct {
	Code string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Code)
}
