package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/larder/pkg/chat"
	"github.com/papercomputeco/larder/pkg/logger"
	"github.com/papercomputeco/larder/pkg/storage"
	"github.com/papercomputeco/larder/pkg/usage"
)

// UsageReporter exposes provider usage counters.
type UsageReporter interface {
	Snapshot() usage.Snapshot
}

// Server is the API server for chatting with the assistant and managing
// ingredients.
type Server struct {
	config    Config
	assistant *chat.Assistant
	usage     UsageReporter
	storer    storage.Driver
	logger    *slog.Logger
	app       *fiber.App
}

// NewServer creates a new API server.
// The storer is injected to allow sharing with other components
// (e.g., the recipe suggestion flow and CLI tooling).
func NewServer(config Config, assistant *chat.Assistant, usage UsageReporter, storer storage.Driver, l *slog.Logger) (*Server, error) {
	if assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if usage == nil {
		return nil, errors.New("usage reporter is required")
	}
	if storer == nil {
		return nil, errors.New("storage driver is required")
	}
	if l == nil {
		l = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		UnescapePath:          true,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization,Accept",
	}))

	s := &Server{
		config:    config,
		assistant: assistant,
		usage:     usage,
		storer:    storer,
		logger:    l,
		app:       app,
	}

	app.Get("/", s.handleHealth)
	app.Get("/ping", s.handlePing)

	app.Post("/chat", s.handleChat)
	app.Post("/recipes/suggest", s.handleSuggestRecipes)
	app.Get("/conversation", s.handleGetConversation)
	app.Post("/conversation/clear", s.handleClearConversation)
	app.Get("/usage", s.handleUsage)

	app.Get("/ingredients", s.handleListIngredients)
	app.Post("/ingredients", s.handleAddIngredient)
	app.Post("/ingredients/import", s.handleImportIngredients)
	app.Put("/ingredients/:id", s.handleUpdateIngredient)
	app.Delete("/ingredients/:id", s.handleDeleteIngredient)
	app.Delete("/ingredients", s.handleDeleteAllIngredients)
	app.Get("/ingredients/search/:query", s.handleSearchIngredients)
	app.Get("/ingredients/category/:category", s.handleIngredientsByCategory)

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"storage", s.config.StorageDriver,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
