package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrivoice/packages/go/backend/i18n"
)

func TestListLanguages(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	code, body := srv.do(t, http.MethodGet, "/v1/languages", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "en", body["current"])
	languages, ok := body["languages"].([]any)
	require.True(t, ok)
	assert.Len(t, languages, 3)
}

func TestSetLanguagePersistsAndReports(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	code, body := srv.do(t, http.MethodPut, "/v1/language", map[string]string{"code": "hi"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hi", body["code"])
	assert.Equal(t, false, body["rtl"])

	code, body = srv.do(t, http.MethodGet, "/v1/language", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "hi", body["code"])
	assert.Equal(t, i18n.Hindi, srv.container.Localizer.CurrentLanguage())
}

func TestSetLanguageRejectsBadInput(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	code, _ := srv.do(t, http.MethodPut, "/v1/language", map[string]string{"code": "fr"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = srv.do(t, http.MethodPut, "/v1/language", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = srv.do(t, http.MethodPut, "/v1/language", `{"code":"hi","extra":true}`)
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, i18n.English, srv.container.Localizer.CurrentLanguage())
}

func TestTranslateInterpolatesQueryParams(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	code, body := srv.do(t, http.MethodGet, "/v1/translations/home.greeting?name=Ravi", nil)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "home.greeting", body["key"])
	assert.Equal(t, "en", body["language"])
	assert.Equal(t, "Namaste, Ravi!", body["text"])
}

func TestTranslateFallsBackToKeyAndEnglish(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)

	_, body := srv.do(t, http.MethodGet, "/v1/translations/does.not.exist", nil)
	assert.Equal(t, "does.not.exist", body["text"])

	_, body = srv.do(t, http.MethodGet, "/v1/translations/voice.errors.microphone?lang=pa", nil)
	assert.Equal(t, "pa", body["language"])
	assert.Equal(t, "The microphone is not available right now.", body["text"])

	code, _ := srv.do(t, http.MethodGet, "/v1/translations/common.save?lang=xx", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}
