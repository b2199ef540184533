package chat

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/larder/pkg/llm"
)

// WindowSize is the number of recent turns sent to the provider.
const WindowSize = 6

// HistorySize is the number of turns returned to HTTP callers.
const HistorySize = 10

// SystemPrompt frames every provider request.
const SystemPrompt = `You are a helpful food and cooking assistant. Help with recipes, ingredient management, food storage tips, expiration dates, freezer advice, and cooking suggestions. Be practical and concise. Focus on food-related topics. Always provide a response.`

// BuildWindow prepends the system prompt to the given recent turns.
func BuildWindow(recent []llm.Message) []llm.Message {
	window := make([]llm.Message, 0, len(recent)+1)
	window = append(window, llm.NewMessage(llm.RoleSystem, SystemPrompt))
	return append(window, recent...)
}

// RecipeFilters narrow a recipe suggestion request.
type RecipeFilters struct {
	Cuisine string `json:"cuisine,omitempty"`
	Diet    string `json:"diet,omitempty"`
	Time    string `json:"time,omitempty"`
}

// RecipePrompt turns the pantry contents and optional filters into a user
// message asking for recipe suggestions.
func RecipePrompt(ingredients []string, f RecipeFilters) string {
	var b strings.Builder

	fmt.Fprintf(&b, "I have these ingredients: %s. ", strings.Join(ingredients, ", "))
	if f.Cuisine != "" {
		fmt.Fprintf(&b, "I want %s cuisine. ", f.Cuisine)
	}
	if f.Diet != "" {
		fmt.Fprintf(&b, "Dietary preference: %s. ", f.Diet)
	}
	if f.Time != "" {
		fmt.Fprintf(&b, "I have %s to cook. ", f.Time)
	}
	b.WriteString("What are 2-3 specific recipes I can make?")

	return b.String()
}
