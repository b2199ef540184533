package api

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/larder/pkg/storage"
	"github.com/papercomputeco/larder/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/larder/pkg/utils/test"
)

var _ = Describe("Ingredient Handlers", func() {
	var (
		ts  *testServer
		app *fiber.App
	)

	BeforeEach(func() {
		ts = newTestServer(inmemory.NewDriver())
		app = ts.server.app
	})

	add := func(req IngredientRequest) storage.Ingredient {
		var resp IngredientResponse
		Expect(do(app, http.MethodPost, "/ingredients", req, &resp)).To(Equal(fiber.StatusOK))
		return resp.Ingredient
	}

	Describe("POST /ingredients", func() {
		It("normalizes and stores the ingredient", func() {
			var resp IngredientResponse
			status := do(app, http.MethodPost, "/ingredients", IngredientRequest{Name: "  Red Onion "}, &resp)

			Expect(status).To(Equal(fiber.StatusOK))
			Expect(resp.Success).To(BeTrue())
			Expect(resp.Message).To(Equal("Added red onion to your ingredients"))
			Expect(resp.Ingredient.ID).NotTo(BeZero())
			Expect(resp.Ingredient.Name).To(Equal("red onion"))
			Expect(resp.Ingredient.Category).To(Equal("uncategorized"))
			Expect(resp.Ingredient.Quantity).To(Equal(1.0))
			Expect(resp.Ingredient.Unit).To(Equal("unit"))
		})

		It("requires a name", func() {
			var resp ErrorResponse
			Expect(do(app, http.MethodPost, "/ingredients", IngredientRequest{Category: "dairy"}, &resp)).To(Equal(fiber.StatusBadRequest))
			Expect(resp.Error).To(Equal("Ingredient name is required"))
		})
	})

	Describe("GET /ingredients", func() {
		It("lists the newest ingredient first", func() {
			add(IngredientRequest{Name: "flour"})
			add(IngredientRequest{Name: "sugar"})

			var resp IngredientListResponse
			Expect(do(app, http.MethodGet, "/ingredients", nil, &resp)).To(Equal(fiber.StatusOK))
			Expect(storage.Names(resp.Ingredients)).To(Equal([]string{"sugar", "flour"}))
		})

		It("returns 500 when the store fails", func() {
			ts = newTestServer(testutils.FailingDriver{})

			var resp ErrorResponse
			Expect(do(ts.server.app, http.MethodGet, "/ingredients", nil, &resp)).To(Equal(fiber.StatusInternalServerError))
			Expect(resp.Error).To(Equal("Failed to fetch ingredients"))
		})
	})

	Describe("POST /ingredients/import", func() {
		It("skips entries without a name", func() {
			var resp ImportResponse
			status := do(app, http.MethodPost, "/ingredients/import", ImportRequest{
				Ingredients: []IngredientRequest{
					{Name: "Rice", Category: "grains", Quantity: 2, Unit: "kg"},
					{Category: "nameless"},
					{Name: "beans"},
				},
			}, &resp)

			Expect(status).To(Equal(fiber.StatusOK))
			Expect(resp.Imported).To(HaveLen(2))
			Expect(resp.Message).To(Equal("Imported 2 ingredients successfully"))
			Expect(storage.Names(resp.Imported)).To(Equal([]string{"rice", "beans"}))
		})

		It("requires an ingredients array", func() {
			var resp ErrorResponse
			Expect(do(app, http.MethodPost, "/ingredients/import", map[string]any{}, &resp)).To(Equal(fiber.StatusBadRequest))
			Expect(resp.Error).To(Equal("Ingredients array is required"))
		})

		It("rejects a non-array value", func() {
			var resp ErrorResponse
			Expect(do(app, http.MethodPost, "/ingredients/import", map[string]any{"ingredients": "rice"}, &resp)).To(Equal(fiber.StatusBadRequest))
			Expect(resp.Error).To(Equal("Ingredients array is required"))
		})
	})

	Describe("PUT /ingredients/:id", func() {
		It("updates only the given fields", func() {
			ing := add(IngredientRequest{Name: "milk", Category: "dairy", Quantity: 1, Unit: "l"})

			var resp IngredientResponse
			status := do(app, http.MethodPut, "/ingredients/"+strconv.FormatInt(ing.ID, 10),
				map[string]any{"name": " Oat Milk ", "quantity": 2}, &resp)

			Expect(status).To(Equal(fiber.StatusOK))
			Expect(resp.Ingredient.Name).To(Equal("oat milk"))
			Expect(resp.Ingredient.Quantity).To(Equal(2.0))
			Expect(resp.Ingredient.Category).To(Equal("dairy"))
			Expect(resp.Ingredient.Unit).To(Equal("l"))
		})

		It("returns 404 for a missing ingredient", func() {
			var resp ErrorResponse
			Expect(do(app, http.MethodPut, "/ingredients/999", map[string]any{"unit": "g"}, &resp)).To(Equal(fiber.StatusNotFound))
			Expect(resp.Error).To(Equal("Ingredient not found"))
		})

		It("returns 400 for a malformed id", func() {
			Expect(do(app, http.MethodPut, "/ingredients/abc", map[string]any{"unit": "g"}, nil)).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("DELETE /ingredients/:id", func() {
		It("removes the ingredient", func() {
			ing := add(IngredientRequest{Name: "salt"})

			var resp MessageResponse
			Expect(do(app, http.MethodDelete, "/ingredients/"+strconv.FormatInt(ing.ID, 10), nil, &resp)).To(Equal(fiber.StatusOK))
			Expect(resp.Message).To(Equal("Ingredient removed successfully"))

			var list IngredientListResponse
			Expect(do(app, http.MethodGet, "/ingredients", nil, &list)).To(Equal(fiber.StatusOK))
			Expect(list.Ingredients).To(BeEmpty())
		})

		It("returns 404 for a missing ingredient", func() {
			Expect(do(app, http.MethodDelete, "/ingredients/999", nil, nil)).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("DELETE /ingredients", func() {
		It("reports how many ingredients were cleared", func() {
			add(IngredientRequest{Name: "a"})
			add(IngredientRequest{Name: "b"})

			var resp MessageResponse
			Expect(do(app, http.MethodDelete, "/ingredients", nil, &resp)).To(Equal(fiber.StatusOK))
			Expect(resp.Message).To(Equal("Cleared all 2 ingredients"))
		})
	})

	Describe("GET /ingredients/search/:query", func() {
		It("matches a case-insensitive substring ordered by name", func() {
			add(IngredientRequest{Name: "olive oil"})
			add(IngredientRequest{Name: "black olives"})
			add(IngredientRequest{Name: "garlic"})

			var resp IngredientListResponse
			Expect(do(app, http.MethodGet, "/ingredients/search/OLIVE", nil, &resp)).To(Equal(fiber.StatusOK))
			Expect(storage.Names(resp.Ingredients)).To(Equal([]string{"black olives", "olive oil"}))
		})

		It("unescapes the query", func() {
			add(IngredientRequest{Name: "olive oil"})

			var resp IngredientListResponse
			Expect(do(app, http.MethodGet, "/ingredients/search/olive%20oil", nil, &resp)).To(Equal(fiber.StatusOK))
			Expect(resp.Ingredients).To(HaveLen(1))
		})
	})

	Describe("GET /ingredients/category/:category", func() {
		It("lists the category ordered by name", func() {
			add(IngredientRequest{Name: "thyme", Category: "herbs"})
			add(IngredientRequest{Name: "basil", Category: "herbs"})
			add(IngredientRequest{Name: "milk", Category: "dairy"})

			var resp IngredientListResponse
			Expect(do(app, http.MethodGet, "/ingredients/category/herbs", nil, &resp)).To(Equal(fiber.StatusOK))
			Expect(storage.Names(resp.Ingredients)).To(Equal([]string{"basil", "thyme"}))
		})
	})
})
