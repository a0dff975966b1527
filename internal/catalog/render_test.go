package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesAndRemovesPlaceholders(t *testing.T) {
	tpl := "Придумай идею по теме {тема} для {для кого}. Цель: {цель}."
	got := Render(tpl, map[string]string{"тема": "боты", "для кого": "новички", "цель": "рост"})
	assert.Equal(t, "Придумай идею по теме боты для новички. Цель: рост.", got)

	assert.Equal(t, "Придумай идею по теме  для . Цель: .", Render(tpl, nil))
}

func TestRenderNeverLeavesPlaceholders(t *testing.T) {
	got := Render("a {x} b {y}", map[string]string{"x": "{y}", "y": "{z}"})
	assert.False(t, strings.ContainsAny(got, "{}"), got)
}

func TestRenderSampleExamplesRoundTrip(t *testing.T) {
	for _, p := range Sample().Prompts() {
		want := p.Template
		for _, f := range p.Fields {
			want = strings.ReplaceAll(want, "{"+f+"}", p.Example(f))
		}
		assert.Equal(t, want, Render(p.Template, p.Examples), p.Key)
		assert.NotContains(t, Render(p.Template, p.Examples), "{", p.Key)
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"тема", "для кого"}, Placeholders("{тема} и {для кого}"))
	assert.Empty(t, Placeholders("нет полей"))
}
