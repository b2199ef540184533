package config

import (
	"slices"

	"github.com/papercomputeco/larder/pkg/llm"
)

const (
	defaultListen    = ":3000"
	defaultAPITarget = "http://localhost:3000"

	defaultStorageDriver = StorageDriverPostgres

	defaultEventTopic = "larder.chat.turns"

	defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel    = "mistralai/mistral-7b-instruct:free"
	defaultOpenRouterLimit    = 100
	defaultReferer            = "http://localhost:3000"
	defaultTitle              = "Food Assistant"

	defaultHuggingFaceModel    = "mistralai/Mistral-7B-Instruct-v0.1"
	defaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models/" + defaultHuggingFaceModel
	defaultHuggingFaceLimit    = 1000
)

// Storage driver names.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"
	StorageDriverMemory   = "memory"
)

// StorageDrivers returns the supported storage driver names.
func StorageDrivers() []string {
	return []string{StorageDriverPostgres, StorageDriverSQLite, StorageDriverMemory}
}

// IsValidStorageDriver reports whether name is a supported storage driver.
func IsValidStorageDriver(name string) bool {
	return slices.Contains(StorageDrivers(), name)
}

// DefaultOpenRouterProvider returns the provider used when none is configured.
func DefaultOpenRouterProvider() ProviderConfig {
	return ProviderConfig{
		Name:     llm.FamilyOpenRouter.String(),
		Family:   llm.FamilyOpenRouter.String(),
		Endpoint: defaultOpenRouterEndpoint,
		Model:    defaultOpenRouterModel,
		Window:   llm.WindowDaily,
		Limit:    defaultOpenRouterLimit,
		Referer:  defaultReferer,
		Title:    defaultTitle,
	}
}

// DefaultHuggingFaceProvider returns a ready-to-use Hugging Face inference
// provider entry.
func DefaultHuggingFaceProvider() ProviderConfig {
	return ProviderConfig{
		Name:     llm.FamilyHuggingFace.String(),
		Family:   llm.FamilyHuggingFace.String(),
		Endpoint: defaultHuggingFaceEndpoint,
		Model:    defaultHuggingFaceModel,
		Window:   llm.WindowMonthly,
		Limit:    defaultHuggingFaceLimit,
	}
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
		},
		Providers: []ProviderConfig{
			DefaultOpenRouterProvider(),
		},
		Client: ClientConfig{
			APITarget: defaultAPITarget,
		},
		EventStream: EventStreamConfig{
			Topic: defaultEventTopic,
		},
	}
}
