package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"agrivoice/packages/go/backend/i18n"
)

// Localizer is the part of the localization dispatcher the API exposes.
type Localizer interface {
	Languages() []i18n.Descriptor
	CurrentLanguage() i18n.LanguageCode
	IsRTL() bool
	SetLanguage(ctx context.Context, code i18n.LanguageCode) error
	TranslateIn(code i18n.LanguageCode, key string, params map[string]any) string
}

type languageResponse struct {
	Code i18n.LanguageCode `json:"code"`
	RTL  bool              `json:"rtl"`
}

type setLanguageInput struct {
	Code string `json:"code"`
}

func listLanguagesHandler(localizer Localizer, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]any{
			"current":   localizer.CurrentLanguage(),
			"languages": localizer.Languages(),
		})
	}
}

func getLanguageHandler(localizer Localizer, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, logger, http.StatusOK, languageResponse{
			Code: localizer.CurrentLanguage(),
			RTL:  localizer.IsRTL(),
		})
	}
}

func setLanguageHandler(localizer Localizer, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input setLanguageInput
		if err := decodeJSON(r, &input, logger); err != nil {
			writeError(w, logger, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
			return
		}
		if input.Code == "" {
			writeError(w, logger, http.StatusBadRequest, errors.New("code is required"))
			return
		}

		if err := localizer.SetLanguage(r.Context(), i18n.LanguageCode(input.Code)); err != nil {
			writeError(w, logger, statusForError(err), err)
			return
		}

		writeJSON(w, logger, http.StatusOK, languageResponse{
			Code: localizer.CurrentLanguage(),
			RTL:  localizer.IsRTL(),
		})
	}
}

// translateHandler resolves a key in ?lang= (default: current language); every
// other query parameter is an interpolation value.
func translateHandler(localizer Localizer, logger *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		if key == "" {
			writeError(w, logger, http.StatusBadRequest, errors.New("missing translation key"))
			return
		}

		query := r.URL.Query()
		language := localizer.CurrentLanguage()
		if lang := query.Get("lang"); lang != "" {
			language = i18n.LanguageCode(lang)
			if _, ok := i18n.LookupDescriptor(language); !ok {
				writeError(w, logger, http.StatusUnprocessableEntity, &i18n.UnsupportedLanguageError{Code: lang})
				return
			}
		}

		params := make(map[string]any, len(query))
		for name, values := range query {
			if name == "lang" || len(values) == 0 {
				continue
			}
			params[name] = values[0]
		}

		writeJSON(w, logger, http.StatusOK, map[string]any{
			"key":      key,
			"language": language,
			"text":     localizer.TranslateIn(language, key, params),
		})
	}
}
