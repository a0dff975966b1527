// Package catalog holds the prompt categories and templates shown by the bot.
// A catalog is loaded once at startup and never changes afterwards.
package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// MenuWidth is the exact number of categories in the main menu.
	MenuWidth = 6
	// MaxItems caps the prompts listed under one category.
	MaxItems = 6

	placeholderTitle = "Другие"
	placeholderIcon  = "➕"
)

// Category is one entry of the main menu.
type Category struct {
	ID          string
	Title       string
	Icon        string
	Description string
	Items       []string
	Label       string
	Placeholder bool
}

// Prompt is a template with the fields a user fills in order.
type Prompt struct {
	Key      string
	Title    string
	Icon     string
	Fields   []string
	Examples map[string]string
	Template string
	Label    string
}

// CleanTitle returns the title without a leading icon.
func (p Prompt) CleanTitle() string {
	return StripLeadingIcon(p.Title)
}

// Example returns the sample answer for field, if any.
func (p Prompt) Example(field string) string {
	return strings.TrimSpace(p.Examples[field])
}

// Catalog is an immutable set of categories and prompts.
type Catalog struct {
	categories []Category
	prompts    []Prompt
	byKey      map[string]int
}

// New builds a catalog. Categories beyond MenuWidth are dropped, missing
// ones are padded with placeholders and item lists are capped at MaxItems.
func New(categories []Category, prompts []Prompt) *Catalog {
	c := &Catalog{byKey: make(map[string]int, len(prompts))}
	for _, p := range prompts {
		if _, dup := c.byKey[p.Key]; dup || p.Key == "" {
			continue
		}
		p.Fields = append([]string(nil), p.Fields...)
		p.Label = PromptLabel(p.Title, p.Icon)
		c.byKey[p.Key] = len(c.prompts)
		c.prompts = append(c.prompts, p)
	}

	if len(categories) > MenuWidth {
		categories = categories[:MenuWidth]
	}
	for _, cat := range categories {
		if len(cat.Items) > MaxItems {
			cat.Items = cat.Items[:MaxItems]
		}
		cat.Items = append([]string(nil), cat.Items...)
		cat.Label = CategoryLabel(cat.Title, cat.Icon, cat.Description)
		c.categories = append(c.categories, cat)
	}
	for len(c.categories) < MenuWidth {
		n := len(c.categories) + 1
		c.categories = append(c.categories, Category{
			ID:          "more" + strconv.Itoa(n),
			Title:       placeholderTitle,
			Icon:        placeholderIcon,
			Label:       CategoryLabel(placeholderTitle, placeholderIcon, ""),
			Placeholder: true,
		})
	}
	return c
}

// Categories returns the menu entries in order; always MenuWidth long.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// Prompts returns all prompts in file order.
func (c *Catalog) Prompts() []Prompt {
	return append([]Prompt(nil), c.prompts...)
}

// Prompt looks a prompt up by key.
func (c *Catalog) Prompt(key string) (Prompt, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Prompt{}, false
	}
	return c.prompts[i], true
}

// Category looks a category up by id.
func (c *Catalog) Category(id string) (Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// CategoryAt returns the n-th menu entry, counting from 1.
func (c *Catalog) CategoryAt(n int) (Category, bool) {
	if n < 1 || n > len(c.categories) {
		return Category{}, false
	}
	return c.categories[n-1], true
}

// Items returns the known prompts of a category in menu order.
func (c *Catalog) Items(cat Category) []Prompt {
	out := make([]Prompt, 0, len(cat.Items))
	for _, key := range cat.Items {
		if p, ok := c.Prompt(key); ok {
			out = append(out, p)
		}
	}
	return out
}

// MatchCategory finds the first category whose label or raw title equals text.
func (c *Catalog) MatchCategory(text string) (Category, bool) {
	if text == "" {
		return Category{}, false
	}
	for _, cat := range c.categories {
		if text == cat.Label || text == cat.Title {
			return cat, true
		}
	}
	return Category{}, false
}

// MatchPrompt finds the first prompt whose label equals text or whose clean
// title equals text, ignoring case.
func (c *Catalog) MatchPrompt(text string) (Prompt, bool) {
	if text == "" {
		return Prompt{}, false
	}
	folded := cases.Fold().String(text)
	for _, p := range c.prompts {
		clean := p.CleanTitle()
		if clean == "" {
			continue
		}
		if text == p.Label || text == clean || folded == cases.Fold().String(clean) {
			return p, true
		}
	}
	return Prompt{}, false
}

// MatchIndex resolves a bare 1-based menu position such as "3".
func (c *Catalog) MatchIndex(text string) (Category, bool) {
	if text == "" || strings.TrimLeft(text, "0123456789") != "" {
		return Category{}, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return Category{}, false
	}
	return c.CategoryAt(n)
}
