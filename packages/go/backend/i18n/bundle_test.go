package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoBundleLookup(t *testing.T) {
	t.Parallel()

	bundle := NewPoBundle([]byte(`msgid ""
msgstr ""
"Content-Type: text/plain; charset=UTF-8\n"

msgid "soil.moisture"
msgstr "ਨਮੀ 20% ਤੋਂ ਘੱਟ"

msgid "soil.title"
msgstr ""
`))

	value, ok := bundle.Lookup("soil.moisture")
	assert.True(t, ok)
	assert.Equal(t, "ਨਮੀ 20% ਤੋਂ ਘੱਟ", value, "msgstr is returned verbatim, not formatted")

	_, ok = bundle.Lookup("soil.title")
	assert.False(t, ok, "untranslated entries fall through")

	_, ok = bundle.Lookup("soil.missing")
	assert.False(t, ok)

	_, ok = bundle.Lookup("")
	assert.False(t, ok)
}
