package chat

import "strings"

// Category names a group of canned fallback replies.
type Category string

const (
	CategoryRecipe   Category = "recipe"
	CategoryStorage  Category = "storage"
	CategoryShopping Category = "shopping"
	CategoryGeneric  Category = "generic"
)

// Rule maps keywords to a canned reply. A rule with no keywords matches
// every message.
type Rule struct {
	Category Category
	Keywords []string
	Reply    string
}

// Matches reports whether text contains any of the rule's keywords,
// ignoring case.
func (r Rule) Matches(text string) bool {
	if len(r.Keywords) == 0 {
		return true
	}

	lower := strings.ToLower(text)
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DefaultRules is the ordered fallback table. The generic rule is last and
// matches everything.
var DefaultRules = []Rule{
	{
		Category: CategoryRecipe,
		Keywords: []string{"recipe", "make", "cook"},
		Reply:    "I'm having trouble accessing my recipe database right now. Try searching online for recipes with your available ingredients!",
	},
	{
		Category: CategoryStorage,
		Keywords: []string{"expire", "fresh", "store", "last"},
		Reply:    "For food safety: refrigerate leftovers within 2 hours, freeze meat you won't use in 3-5 days, and when in doubt, throw it out!",
	},
	{
		Category: CategoryShopping,
		Keywords: []string{"buy", "shop", "grocery"},
		Reply:    "Based on your ingredients, consider buying fresh vegetables, herbs, and staples like onions and garlic to expand your recipe options!",
	},
	{
		Category: CategoryGeneric,
		Reply:    "I'm currently experiencing technical difficulties. For now, you might want to check your ingredient list and see what inspires you in the kitchen!",
	},
}

// SelectFallback returns the first rule matching text. If no rule matches,
// the last rule in the table is used; an empty table yields the generic
// default reply.
func SelectFallback(rules []Rule, text string) Rule {
	for _, r := range rules {
		if r.Matches(text) {
			return r
		}
	}

	if len(rules) > 0 {
		return rules[len(rules)-1]
	}
	return DefaultRules[len(DefaultRules)-1]
}
