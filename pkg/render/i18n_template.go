package render

import (
	"fmt"
	"strings"
)

// TemplateI18nFuncs returns helpers for template engines:
//
//	translate(localeSrc, key, ...args) string
//	current_locale(localeSrc) string
//
// localeSrc is a locale string or a map holding one under "locale". Lookups
// follow Messages: the requested locale, then DefaultLocale, then the key.
func TemplateI18nFuncs(t Translator) map[string]any {
	return map[string]any{
		"translate": func(localeSrc any, key string, args ...any) string {
			key = strings.TrimSpace(key)
			if key == "" {
				return ""
			}
			return NewMessages(t, resolveLocale(localeSrc)).T(key, args...)
		},
		"current_locale": func(localeSrc any) string {
			if locale := resolveLocale(localeSrc); locale != "" {
				return locale
			}
			return DefaultLocale
		},
	}
}

func resolveLocale(src any) string {
	switch data := src.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(data)
	case map[string]string:
		return strings.TrimSpace(data["locale"])
	case map[string]any:
		if v, ok := data["locale"]; ok && v != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return ""
}
