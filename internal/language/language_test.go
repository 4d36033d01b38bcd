package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromLocale(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"en", "eng"},
		{"en-US", "eng"},
		{"en_US.UTF-8", "eng"},
		{"ES", "spa"},
		{"ru_RU", "rus"},
		{"zh-Hans", "zho"},
		{"xx", DefaultCode},
		{"", DefaultCode},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			assert.Equal(t, tt.want, FromLocale(tt.locale))
		})
	}
}

func TestResolve_ExplicitWins(t *testing.T) {
	got := Resolve("fra", "spa", false, "en-US")
	assert.Equal(t, "fra", got)
}

func TestResolve_UserDefault(t *testing.T) {
	got := Resolve("", "spa", false, "en-US")
	assert.Equal(t, "spa", got)
}

func TestResolve_AutoDetectSkipsUserDefault(t *testing.T) {
	// With auto-detect on, the stored default is bypassed in favor of the
	// locale-derived guess.
	got := Resolve("", "spa", true, "de_DE")
	assert.Equal(t, "deu", got)
}

func TestResolve_LocaleWhenNoUserDefault(t *testing.T) {
	got := Resolve("", "", false, "pt-BR")
	assert.Equal(t, "por", got)
}

func TestResolve_AllEmpty(t *testing.T) {
	assert.Equal(t, DefaultCode, Resolve("", "", false, ""))
	assert.Equal(t, DefaultCode, Resolve("", "", true, ""))
}

func TestResolve_UnmappedLocaleFallsBack(t *testing.T) {
	assert.Equal(t, DefaultCode, Resolve("", "", true, "tlh"))
}
