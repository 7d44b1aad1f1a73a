package photo

import (
	"context"
	"embed"
	"encoding/json"
	"net/http"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

var (
	bundle   *i18n.Bundle
	Locales  = []string{"en", "pt-BR"}
	fallback = "en"
)

type localizerKey struct{}

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, locale := range Locales {
		data, err := localesFS.ReadFile("locales/" + locale + ".json")
		if err != nil {
			log.Warn().Err(err).Str("locale", locale).Msg("failed to read locale file")
			continue
		}
		if _, err := bundle.ParseMessageFileBytes(data, locale+".json"); err != nil {
			log.Warn().Err(err).Str("locale", locale).Msg("failed to parse locale file")
		}
	}
}

// NewLocalizer prefers the given languages in order and falls back to English.
func NewLocalizer(langs ...string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, append(langs, fallback)...)
}

// GetLocalizerFromContext retrieves the localizer from context, or returns the
// fallback one.
func GetLocalizerFromContext(ctx context.Context) *i18n.Localizer {
	if ctx != nil {
		if localizer, ok := ctx.Value(localizerKey{}).(*i18n.Localizer); ok {
			return localizer
		}
	}
	return NewLocalizer()
}

func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

// GetLocalizerFromRequest honours ?lang= first, then Accept-Language, then
// the server language.
func GetLocalizerFromRequest(r *http.Request, serverLanguage string) *i18n.Localizer {
	var langs []string
	if lang := r.URL.Query().Get("lang"); lang != "" {
		langs = append(langs, lang)
	}
	if accept := r.Header.Get("Accept-Language"); accept != "" {
		tags, _, err := language.ParseAcceptLanguage(accept)
		if err == nil {
			for _, tag := range tags {
				langs = append(langs, tag.String())
			}
		}
	}
	if serverLanguage != "" {
		langs = append(langs, serverLanguage)
	}
	return NewLocalizer(langs...)
}

// Localize translates messageID, returning the ID itself when no translation
// exists.
func Localize(localizer *i18n.Localizer, messageID string, data map[string]any) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}

// LocalizeWithContext translates with the localizer carried by ctx.
func LocalizeWithContext(ctx context.Context, messageID string, data map[string]any) string {
	return Localize(GetLocalizerFromContext(ctx), messageID, data)
}
