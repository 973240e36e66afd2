package main

import (
	"embed"
	"encoding/json"
	"io/fs"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/fyne-io/vt100"
)

//go:embed translation
var translations embed.FS

var (
	bundleOnce sync.Once
	bundle     *i18n.Bundle

	localizerMu sync.RWMutex
	localizer   *i18n.Localizer
)

func messages() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
		files, err := fs.Glob(translations, "translation/*.json")
		if err != nil {
			vt100.Logger().Error("failed to list translations", "err", err)
			return
		}
		for _, f := range files {
			if _, err := bundle.LoadMessageFileFS(translations, f); err != nil {
				vt100.Logger().Error("failed to load translation", "file", f, "err", err)
			}
		}
	})
	return bundle
}

// setLanguage picks the message language, unknown tags fall back to English.
func setLanguage(lang string) {
	tag, err := language.Parse(lang)
	if err != nil {
		vt100.Logger().Warn("unknown language", "lang", lang, "err", err)
		tag = language.English
	}
	l := i18n.NewLocalizer(messages(), tag.String(), language.English.String())

	localizerMu.Lock()
	localizer = l
	localizerMu.Unlock()
}

// msg returns the translated message id, or the id itself if it is missing.
func msg(id string, data map[string]any) string {
	localizerMu.RLock()
	l := localizer
	localizerMu.RUnlock()
	if l == nil {
		setLanguage(language.English.String())
		return msg(id, data)
	}

	text, err := l.Localize(&i18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		vt100.Logger().Debug("missing message", "id", id, "err", err)
		return id
	}
	return text
}
