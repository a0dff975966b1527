package catalog

import "regexp"

var placeholderRe = regexp.MustCompile(`\{[^}]+\}`)

// Render fills {field} placeholders from values. Placeholders without a
// value are removed, and so is anything brace-shaped a value brought in,
// so the result never carries a literal placeholder.
func Render(template string, values map[string]string) string {
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		return values[m[1:len(m)-1]]
	})
	return placeholderRe.ReplaceAllString(out, "")
}

// Placeholders lists the field names referenced by template in order of appearance.
func Placeholders(template string) []string {
	matches := placeholderRe.FindAllString(template, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1:len(m)-1])
	}
	return out
}
