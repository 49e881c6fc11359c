// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package knowledge

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// SourceName names the knowledge base in answer sources.
	SourceName = "KLU Knowledge Base"

	// GeneralCategory is the fallback category name.
	GeneralCategory = "general"
)

var (
	lowerCaser = cases.Lower(language.Und)
	titleCaser = cases.Title(language.English)
)

// =============================================================================
// CATEGORY
// =============================================================================

// Category is one topic of the knowledge base.
type Category struct {
	Name      string
	Title     string
	Keywords  []string
	Responses []string
}

// Label is the display label used as an answer source,
// e.g. "KLU Knowledge Base — Admissions".
func (c Category) Label() string {
	if c.Name == GeneralCategory {
		return SourceName
	}
	return SourceName + " — " + c.Title
}

// Picker selects an index in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type Picker interface {
	IntN(n int) int
}

// Pick returns a response chosen uniformly with p. A nil p returns the
// first response.
func (c Category) Pick(p Picker) string {
	switch len(c.Responses) {
	case 0:
		return ""
	case 1:
		return c.Responses[0]
	}
	if p == nil {
		return c.Responses[0]
	}
	return c.Responses[p.IntN(len(c.Responses))]
}

// matches reports whether any keyword is a substring of lowered.
func (c Category) matches(lowered string) bool {
	for _, kw := range c.Keywords {
		if kw != "" && strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// =============================================================================
// BASE
// =============================================================================

// Base is an immutable knowledge base.
type Base struct {
	categories []Category
	general    Category
}

// New builds a base from ordered categories and the general fallback.
// Keywords are folded to lower case; missing titles are derived from names.
func New(categories []Category, general Category) *Base {
	b := &Base{categories: make([]Category, 0, len(categories))}
	for _, c := range categories {
		b.categories = append(b.categories, normalize(c))
	}
	general.Name = GeneralCategory
	general.Keywords = nil
	b.general = normalize(general)
	return b
}

func normalize(c Category) Category {
	name := strings.TrimSpace(c.Name)
	if c.Title == "" {
		c.Title = titleCaser.String(name)
	}
	c.Name = lowerCaser.String(name)
	kws := make([]string, 0, len(c.Keywords))
	for _, kw := range c.Keywords {
		kw = lowerCaser.String(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	c.Keywords = kws
	c.Responses = append([]string(nil), c.Responses...)
	return c
}

// Match returns the first category, in declared order, with a keyword
// contained in the lowercased query. ok is false when only the general
// fallback applies; the returned category is then the general one.
func (b *Base) Match(query string) (Category, bool) {
	lowered := lowerCaser.String(query)
	for _, c := range b.categories {
		if c.matches(lowered) {
			return c, true
		}
	}
	return b.general, false
}

// Categories returns the matchable categories in declared order.
func (b *Base) Categories() []Category {
	out := make([]Category, len(b.categories))
	copy(out, b.categories)
	return out
}

// General returns the fallback category.
func (b *Base) General() Category {
	return b.general
}

// Lookup returns the category with the given name, including "general".
func (b *Base) Lookup(name string) (Category, bool) {
	name = lowerCaser.String(strings.TrimSpace(name))
	if name == GeneralCategory {
		return b.general, true
	}
	for _, c := range b.categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Len returns the number of matchable categories.
func (b *Base) Len() int {
	return len(b.categories)
}
