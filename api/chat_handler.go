package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/larder/pkg/chat"
	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/storage"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is returned by POST /chat.
type ChatResponse struct {
	Success             bool          `json:"success"`
	Response            string        `json:"response"`
	ConversationHistory []llm.Message `json:"conversationHistory"`
}

// RecipeSuggestionResponse is returned by POST /recipes/suggest.
type RecipeSuggestionResponse struct {
	Success     bool               `json:"success"`
	Ingredients []string           `json:"ingredients"`
	Suggestions string             `json:"suggestions"`
	Filters     chat.RecipeFilters `json:"filters"`
}

// HistoryResponse is returned by GET /conversation.
type HistoryResponse struct {
	Success bool          `json:"success"`
	History []llm.Message `json:"history"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleChat handles POST /chat.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Message is required")
	}

	reply, err := s.assistant.Handle(c.Context(), req.Message)
	if err != nil {
		var verr *chat.ValidationError
		if errors.As(err, &verr) {
			return errorJSON(c, fiber.StatusBadRequest, "Message is required")
		}

		s.logger.Error("chat request failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "AI service unavailable. Please try again.")
	}

	return c.JSON(ChatResponse{
		Success:             true,
		Response:            reply.Text,
		ConversationHistory: s.assistant.History(chat.HistorySize),
	})
}

// handleSuggestRecipes handles POST /recipes/suggest. The pantry contents
// and filters are turned into a chat message and sent through the assistant.
func (s *Server) handleSuggestRecipes(c *fiber.Ctx) error {
	var filters chat.RecipeFilters
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&filters); err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	ingredients, err := s.storer.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list ingredients", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to get recipe suggestions")
	}

	names := storage.Names(ingredients)
	if len(names) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "No ingredients available. Add some ingredients first!")
	}

	reply, err := s.assistant.Handle(c.Context(), chat.RecipePrompt(names, filters))
	if err != nil {
		s.logger.Error("recipe suggestion failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to get recipe suggestions")
	}

	return c.JSON(RecipeSuggestionResponse{
		Success:     true,
		Ingredients: names,
		Suggestions: reply.Text,
		Filters:     filters,
	})
}

// handleGetConversation handles GET /conversation.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	return c.JSON(HistoryResponse{
		Success: true,
		History: s.assistant.History(chat.HistorySize),
	})
}

// handleClearConversation handles POST /conversation/clear.
func (s *Server) handleClearConversation(c *fiber.Ctx) error {
	return c.JSON(MessageResponse{
		Success: true,
		Message: s.assistant.Clear(),
	})
}

// handleUsage handles GET /usage. Counters are flattened next to the
// success flag, keyed by provider name.
func (s *Server) handleUsage(c *fiber.Ctx) error {
	snap := s.usage.Snapshot()

	body := make(map[string]any, len(snap)+1)
	for name, counter := range snap {
		body[name] = counter
	}
	body["success"] = true

	return c.JSON(body)
}
