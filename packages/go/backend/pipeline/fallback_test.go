package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"agrivoice/packages/go/backend/i18n"
)

func TestMatchFallbackTopic(t *testing.T) {
	t.Parallel()

	localizer, err := i18n.NewLocalizer(nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	tests := []struct {
		name       string
		language   i18n.LanguageCode
		transcript string
		want       string
	}{
		{"fertilizer", i18n.English, "What fertilizer should I use for wheat?", "fertilizer"},
		{"case insensitive", i18n.English, "How much UREA per acre?", "fertilizer"},
		{"first match wins", i18n.English, "Should I water after the pest spray?", "pest"},
		{"water", i18n.English, "When should I irrigate my paddy", "water"},
		{"disease", i18n.English, "There is blight on my potato leaves", "disease"},
		{"harvest", i18n.English, "Is it time to harvest mustard?", "harvest"},
		{"no match", i18n.English, "What is the price of onions today?", ""},
		{"hindi keyword", i18n.Hindi, "गेहूं में कौन सी खाद डालें?", "fertilizer"},
		{"punjabi keyword", i18n.Punjabi, "ਝੋਨੇ ਨੂੰ ਪਾਣੀ ਕਦੋਂ ਦੇਣਾ ਹੈ", "water"},
		{"english topic in hindi session", i18n.Hindi, "pest control kaise karein", "pest"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MatchFallbackTopic(localizer, tt.language, tt.transcript))
		})
	}
}

func TestFallbackResponse(t *testing.T) {
	t.Parallel()

	localizer, err := i18n.NewLocalizer(nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)

	fertilizer := FallbackResponse(localizer, i18n.English, "What fertilizer should I use for wheat?")
	assert.Equal(t, localizer.TranslateIn(i18n.English, "voice.fallback.fertilizer", nil), fertilizer)
	assert.Contains(t, fertilizer, "NPK")

	generic := FallbackResponse(localizer, i18n.English, "Tell me something")
	assert.Equal(t, localizer.TranslateIn(i18n.English, "voice.fallback.default", nil), generic)
	assert.NotEqual(t, generic, fertilizer)

	hindi := FallbackResponse(localizer, i18n.Hindi, "खाद कब डालें")
	assert.Equal(t, localizer.TranslateIn(i18n.Hindi, "voice.fallback.fertilizer", nil), hindi)
}
