package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/larder/pkg/storage"
)

// IngredientRequest is the body of POST /ingredients and PUT /ingredients/:id.
type IngredientRequest struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ImportRequest is the body of POST /ingredients/import.
type ImportRequest struct {
	Ingredients []IngredientRequest `json:"ingredients"`
}

// IngredientListResponse is returned by the ingredient query endpoints.
type IngredientListResponse struct {
	Success     bool                 `json:"success"`
	Ingredients []storage.Ingredient `json:"ingredients"`
}

// IngredientResponse is returned after adding or updating one ingredient.
type IngredientResponse struct {
	Success    bool               `json:"success"`
	Ingredient storage.Ingredient `json:"ingredient"`
	Message    string             `json:"message,omitempty"`
}

// ImportResponse is returned by POST /ingredients/import.
type ImportResponse struct {
	Success  bool                 `json:"success"`
	Imported []storage.Ingredient `json:"imported"`
	Message  string               `json:"message"`
}

func (r IngredientRequest) ingredient() storage.Ingredient {
	return storage.NewIngredient(r.Name, r.Category, r.Quantity, r.Unit)
}

// handleListIngredients handles GET /ingredients.
func (s *Server) handleListIngredients(c *fiber.Ctx) error {
	ingredients, err := s.storer.List(c.Context())
	if err != nil {
		s.logger.Error("failed to list ingredients", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch ingredients")
	}

	return c.JSON(IngredientListResponse{Success: true, Ingredients: ingredients})
}

// handleAddIngredient handles POST /ingredients.
func (s *Server) handleAddIngredient(c *fiber.Ctx) error {
	var req IngredientRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "Ingredient name is required")
	}

	added, err := s.storer.Add(c.Context(), req.ingredient())
	if err != nil || len(added) != 1 {
		s.logger.Error("failed to add ingredient", "name", req.Name, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to add ingredient")
	}

	return c.JSON(IngredientResponse{
		Success:    true,
		Ingredient: added[0],
		Message:    fmt.Sprintf("Added %s to your ingredients", added[0].Name),
	})
}

// handleImportIngredients handles POST /ingredients/import. Entries without
// a name are skipped.
func (s *Server) handleImportIngredients(c *fiber.Ctx) error {
	var req ImportRequest
	if err := c.BodyParser(&req); err != nil || req.Ingredients == nil {
		return errorJSON(c, fiber.StatusBadRequest, "Ingredients array is required")
	}

	batch := make([]storage.Ingredient, 0, len(req.Ingredients))
	for _, r := range req.Ingredients {
		if strings.TrimSpace(r.Name) == "" {
			continue
		}
		batch = append(batch, r.ingredient())
	}

	imported, err := s.storer.Add(c.Context(), batch...)
	if err != nil {
		s.logger.Error("failed to import ingredients", "count", len(batch), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to import ingredients")
	}

	return c.JSON(ImportResponse{
		Success:  true,
		Imported: imported,
		Message:  fmt.Sprintf("Imported %d ingredients successfully", len(imported)),
	})
}

// handleUpdateIngredient handles PUT /ingredients/:id. Only the fields
// present in the body are changed.
func (s *Server) handleUpdateIngredient(c *fiber.Ctx) error {
	id, err := ingredientID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	var update storage.IngredientUpdate
	if err := c.BodyParser(&update); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if update.Name != nil {
		name := strings.ToLower(strings.TrimSpace(*update.Name))
		update.Name = &name
	}

	updated, err := s.storer.Update(c.Context(), id, update)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return errorJSON(c, fiber.StatusNotFound, "Ingredient not found")
		}
		s.logger.Error("failed to update ingredient", "id", id, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to update ingredient")
	}

	return c.JSON(IngredientResponse{Success: true, Ingredient: updated})
}

// handleDeleteIngredient handles DELETE /ingredients/:id.
func (s *Server) handleDeleteIngredient(c *fiber.Ctx) error {
	id, err := ingredientID(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	if err := s.storer.Delete(c.Context(), id); err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return errorJSON(c, fiber.StatusNotFound, "Ingredient not found")
		}
		s.logger.Error("failed to delete ingredient", "id", id, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to delete ingredient")
	}

	return c.JSON(MessageResponse{Success: true, Message: "Ingredient removed successfully"})
}

// handleDeleteAllIngredients handles DELETE /ingredients.
func (s *Server) handleDeleteAllIngredients(c *fiber.Ctx) error {
	n, err := s.storer.DeleteAll(c.Context())
	if err != nil {
		s.logger.Error("failed to clear ingredients", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to clear ingredients")
	}

	return c.JSON(MessageResponse{
		Success: true,
		Message: fmt.Sprintf("Cleared all %d ingredients", n),
	})
}

// handleSearchIngredients handles GET /ingredients/search/:query.
func (s *Server) handleSearchIngredients(c *fiber.Ctx) error {
	ingredients, err := s.storer.Search(c.Context(), c.Params("query"))
	if err != nil {
		s.logger.Error("failed to search ingredients", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to search ingredients")
	}

	return c.JSON(IngredientListResponse{Success: true, Ingredients: ingredients})
}

// handleIngredientsByCategory handles GET /ingredients/category/:category.
func (s *Server) handleIngredientsByCategory(c *fiber.Ctx) error {
	ingredients, err := s.storer.ByCategory(c.Context(), c.Params("category"))
	if err != nil {
		s.logger.Error("failed to list ingredients by category", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to fetch ingredients")
	}

	return c.JSON(IngredientListResponse{Success: true, Ingredients: ingredients})
}

func ingredientID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}
