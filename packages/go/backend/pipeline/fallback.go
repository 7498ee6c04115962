package pipeline

import (
	"strings"

	"agrivoice/packages/go/backend/i18n"
)

// fallbackTopics is checked in order; the first topic with a matching keyword
// wins.
var fallbackTopics = []string{"fertilizer", "pest", "water", "disease", "harvest"}

// MatchFallbackTopic returns the first topic whose English name or localized
// keywords appear in transcript, or "" when none do.
func MatchFallbackTopic(localizer *i18n.Localizer, language i18n.LanguageCode, transcript string) string {
	text := strings.ToLower(transcript)
	for _, topic := range fallbackTopics {
		keywords := append([]string{topic}, localizer.ListIn(language, "voice.fallback.keywords."+topic)...)
		for _, keyword := range keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(text, keyword) {
				return topic
			}
		}
	}
	return ""
}

// FallbackResponse is the canned advice given when generation is unavailable.
func FallbackResponse(localizer *i18n.Localizer, language i18n.LanguageCode, transcript string) string {
	topic := MatchFallbackTopic(localizer, language, transcript)
	if topic == "" {
		topic = "default"
	}
	return localizer.TranslateIn(language, "voice.fallback."+topic, nil)
}
