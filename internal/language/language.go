// Package language resolves the transcription language code from several
// optional sources with a fixed precedence:
//
//	explicit caller argument > user-selected default > locale-derived guess > DefaultCode
//
// The precedence is implemented as an ordered sequence of lookups so each
// step is independently testable.
package language

import "strings"

// DefaultCode is the service language code used when no other source
// yields a value.
const DefaultCode = "eng"

// localeToCode maps a 2-letter locale prefix to the 3-letter code the
// transcription service expects. Unmapped locales fall back to DefaultCode.
var localeToCode = map[string]string{
	"en": "eng",
	"es": "spa",
	"fr": "fra",
	"de": "deu",
	"it": "ita",
	"pt": "por",
	"ru": "rus",
	"ja": "jpn",
	"ko": "kor",
	"zh": "zho",
	"ar": "ara",
	"hi": "hin",
	"nl": "nld",
	"pl": "pol",
	"tr": "tur",
	"uk": "ukr",
}

// FromLocale converts a locale string such as "en-US", "en_US.UTF-8" or
// plain "en" to a service code. Empty or unmapped locales yield DefaultCode.
func FromLocale(locale string) string {
	prefix := strings.ToLower(locale)
	for _, sep := range []string{"_", "-", "."} {
		if i := strings.Index(prefix, sep); i >= 0 {
			prefix = prefix[:i]
		}
	}
	if code, ok := localeToCode[prefix]; ok {
		return code
	}
	return DefaultCode
}

// Resolve returns the language code for a transcription request.
//
//   - explicit, when non-empty, always wins.
//   - otherwise the user's stored default applies, unless autoDetect is on.
//   - with autoDetect on (or no stored default), the locale-derived guess
//     applies.
//   - everything unset resolves to DefaultCode.
func Resolve(explicit, userDefault string, autoDetect bool, locale string) string {
	if explicit != "" {
		return explicit
	}
	if !autoDetect && userDefault != "" {
		return userDefault
	}
	if locale != "" {
		return FromLocale(locale)
	}
	return DefaultCode
}
