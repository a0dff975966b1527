package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasIcon(t *testing.T) {
	cases := []struct {
		title, icon string
		want        bool
	}{
		{"✨ Креатив", "✨", true},
		{"  ✨", "✨", true},
		{"✨Креатив", "✨", false},
		{"Креатив ✨", "✨", false},
		{"", "✨", false},
		{"✨ Креатив", "", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HasIcon(tc.title, tc.icon), "%q/%q", tc.title, tc.icon)
	}
}

func TestStripLeadingIcon(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"✨":                "✨",
		"✨ ":               "✨",
		"✨ Креатив":         "Креатив",
		"✍️ Слоган":        "Слоган",
		"✨ 📣 Маркетинг":     "Маркетинг",
		"Идея ✨ для всех":    "Идея ✨ для всех",
		"Анализ — 📊 монеты": "Анализ — 📊 монеты",
		"2025 прогноз":      "2025 прогноз",
		"  Письмо  ":        "Письмо",
	}
	for in, want := range cases {
		assert.Equal(t, want, StripLeadingIcon(in), "%q", in)
	}
}

func TestPrefixIconIsIdempotent(t *testing.T) {
	titles := []string{"Креатив", "✨ Креатив", "📣 Креатив", "", "✨", "Креатив ✨"}
	for _, title := range titles {
		once := PrefixIcon(title, "✨")
		assert.Equal(t, once, PrefixIcon(once, "✨"), "%q", title)
	}
	assert.Equal(t, "✨ Креатив", PrefixIcon("Креатив", "✨"))
	assert.Equal(t, "✨ Креатив", PrefixIcon(" ✨ Креатив ", "✨"))
	assert.Equal(t, "✨ Креатив", PrefixIcon("📣 Креатив", "✨"))
	assert.Equal(t, "Креатив", PrefixIcon("📣 Креатив", ""))
}

func TestCategoryLabel(t *testing.T) {
	assert.Equal(t, "✨ Креатив — идеи, слоганы", CategoryLabel("Креатив", "✨", "идеи, слоганы"))
	assert.Equal(t, "✨ Креатив — идеи, слоганы", CategoryLabel("✨ Креатив", "✨", " идеи, слоганы "))
	assert.Equal(t, "➕ Другие", CategoryLabel("Другие", "➕", ""))
}

func TestPromptLabel(t *testing.T) {
	assert.Equal(t, "Идея  💡", PromptLabel("Идея", "💡"))
	assert.Equal(t, "Идея  💡", PromptLabel("💡 Идея", "💡"))
	assert.Equal(t, "Идея", PromptLabel("Идея", ""))
}
