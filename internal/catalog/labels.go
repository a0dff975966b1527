package catalog

import (
	"strings"
	"unicode"
)

// labelSeparator splits a category title from its short description.
const labelSeparator = " — "

// promptIconGap separates a prompt title from its right-hand icon.
const promptIconGap = "  "

// HasIcon reports whether the trimmed title starts with icon followed by
// end of string or a space.
func HasIcon(title, icon string) bool {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return false
	}
	rest, ok := strings.CutPrefix(strings.TrimSpace(title), icon)
	return ok && (rest == "" || strings.HasPrefix(rest, " "))
}

// StripLeadingIcon removes leading glyph runs (no letters or digits) that
// are followed by a space. Glyphs elsewhere in the title are kept, and a
// title made only of glyphs is returned trimmed but otherwise unchanged.
func StripLeadingIcon(title string) string {
	s := strings.TrimSpace(title)
	for {
		i := strings.IndexFunc(s, func(r rune) bool {
			return r == ' ' || unicode.IsLetter(r) || unicode.IsDigit(r)
		})
		if i <= 0 || s[i] != ' ' {
			return s
		}
		rest := strings.TrimSpace(s[i:])
		if rest == "" {
			return s
		}
		s = rest
	}
}

// PrefixIcon puts icon in front of the cleaned title unless the title
// already starts with it. PrefixIcon(PrefixIcon(t, i), i) == PrefixIcon(t, i).
func PrefixIcon(title, icon string) string {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return StripLeadingIcon(title)
	}
	if HasIcon(title, icon) {
		return strings.TrimSpace(title)
	}
	clean := StripLeadingIcon(title)
	if clean == "" {
		return icon
	}
	return icon + " " + clean
}

// CategoryLabel is the menu button text of a category: icon on the left,
// optional short description after a dash.
func CategoryLabel(title, icon, description string) string {
	base := PrefixIcon(title, icon)
	if d := strings.TrimSpace(description); d != "" {
		return base + labelSeparator + d
	}
	return base
}

// PromptLabel is the button text of a prompt: clean title, two spaces, icon.
func PromptLabel(title, icon string) string {
	clean := StripLeadingIcon(title)
	if icon = strings.TrimSpace(icon); icon == "" {
		return clean
	}
	return clean + promptIconGap + icon
}
