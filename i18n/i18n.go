// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See License.txt for license information.

package i18n

import (
	"embed"
	"fmt"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/mattermost/mattermost-server/v6/shared/mlog"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFiles embed.FS

// Translations holds every message catalog known to the tracker.
type Translations struct {
	bundle      *i18n.Bundle
	matcher     language.Matcher
	defaultLang string
	// loaded holds the tags of the parsed catalogs. The bundle also
	// reports its default tag even when no catalog provides it.
	loaded []language.Tag
}

// NewTranslations loads the embedded catalogs. defaultLang is used when a
// request does not ask for a supported language.
func NewTranslations(defaultLang string) (*Translations, error) {
	if defaultLang == "" {
		return nil, fmt.Errorf("default language must not be empty")
	}

	defaultTag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("error reading locales: %w", err)
	}
	t := &Translations{
		bundle:      bundle,
		defaultLang: defaultLang,
	}
	for _, file := range files {
		data, err := localeFiles.ReadFile(path.Join("locales", file.Name()))
		if err != nil {
			return nil, fmt.Errorf("error reading locale file %s: %w", file.Name(), err)
		}
		messageFile, err := bundle.ParseMessageFileBytes(data, file.Name())
		if err != nil {
			return nil, fmt.Errorf("error loading locale file %s: %w", file.Name(), err)
		}
		t.loaded = append(t.loaded, messageFile.Tag)
	}

	if !t.IsSupported(defaultLang) {
		return nil, fmt.Errorf("language '%s' not supported", defaultLang)
	}

	// The default goes first so that it wins when nothing else matches.
	tags := []language.Tag{defaultTag}
	for _, tag := range t.loaded {
		if tag != defaultTag {
			tags = append(tags, tag)
		}
	}
	t.matcher = language.NewMatcher(tags)

	return t, nil
}

// Languages returns the base language of every loaded catalog.
func (t *Translations) Languages() []string {
	var langs []string
	for _, tag := range t.loaded {
		base, _ := tag.Base()
		langs = append(langs, base.String())
	}
	return langs
}

func (t *Translations) IsSupported(lang string) bool {
	for _, supported := range t.Languages() {
		if supported == lang {
			return true
		}
	}
	return false
}

// Localizer picks the best catalog for the given preferences. Each
// preference may be a tag or a whole Accept-Language header value.
func (t *Translations) Localizer(prefs ...string) *Localizer {
	tag, _ := language.MatchStrings(t.matcher, prefs...)
	base, _ := tag.Base()
	lang := base.String()
	if !t.IsSupported(lang) {
		lang = t.defaultLang
	}

	return &Localizer{
		localizer: i18n.NewLocalizer(t.bundle, lang, t.defaultLang),
		lang:      lang,
	}
}

// Localizer translates messages into a single language.
type Localizer struct {
	localizer *i18n.Localizer
	lang      string
}

// Lang is the language the messages are rendered in.
func (l *Localizer) Lang() string {
	return l.lang
}

// T renders the message with the optional template data. Unknown ids are
// returned as is.
func (l *Localizer) T(messageID string, templateData ...map[string]interface{}) string {
	var data map[string]interface{}
	if len(templateData) > 0 {
		data = templateData[0]
	}
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
}

// Plural renders a message that has plural forms. Count is available to
// the template.
func (l *Localizer) Plural(messageID string, count int) string {
	return l.localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		PluralCount:  count,
		TemplateData: map[string]interface{}{"Count": count},
	})
}

func (l *Localizer) localize(cfg *i18n.LocalizeConfig) string {
	localized, err := l.localizer.Localize(cfg)
	if err != nil {
		mlog.Debug("Translation missing", mlog.String("id", cfg.MessageID), mlog.String("lang", l.lang), mlog.Err(err))
		return cfg.MessageID
	}
	return localized
}
