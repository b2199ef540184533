package config

import (
	"fmt"

	"github.com/papercomputeco/larder/pkg/credentials"
	"github.com/papercomputeco/larder/pkg/llm"
)

// KeyResolver returns the API key configured for a provider.
type KeyResolver interface {
	Resolve(provider string) (string, credentials.Source, error)
}

// Validate checks the settings the server cannot start without. It reports
// every problem at once as a *ConfigurationError.
func (c *Config) Validate() error {
	cerr := &ConfigurationError{}

	if c.Server.Listen == "" {
		cerr.Missing = append(cerr.Missing, "server.listen")
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Storage.PostgresURL == "" {
			cerr.Missing = append(cerr.Missing, "storage.postgres_url (DATABASE_URL)")
		}
	case StorageDriverSQLite:
		if c.Storage.SQLitePath == "" {
			cerr.Missing = append(cerr.Missing, "storage.sqlite_path")
		}
	case StorageDriverMemory:
	default:
		cerr.Missing = append(cerr.Missing, fmt.Sprintf("storage.driver (unknown driver %q)", c.Storage.Driver))
	}

	if len(c.Providers) == 0 {
		cerr.Missing = append(cerr.Missing, "providers")
	}
	for i, p := range c.Providers {
		if p.Name == "" {
			cerr.Missing = append(cerr.Missing, fmt.Sprintf("providers[%d].name", i))
		}
		if _, err := llm.ParseFamily(p.Family); err != nil {
			cerr.Missing = append(cerr.Missing, fmt.Sprintf("providers[%d].family (unknown family %q)", i, p.Family))
		}
		if p.Endpoint == "" {
			cerr.Missing = append(cerr.Missing, fmt.Sprintf("providers[%d].endpoint", i))
		}
	}

	return cerr.errorOrNil()
}

// ProviderDescriptors resolves the configured providers into descriptors
// with their API keys. A provider without a key is a *ConfigurationError
// naming the environment variable that would supply it.
func (c *Config) ProviderDescriptors(keys KeyResolver) ([]llm.Descriptor, error) {
	cerr := &ConfigurationError{}
	descriptors := make([]llm.Descriptor, 0, len(c.Providers))

	for i, p := range c.Providers {
		family, err := llm.ParseFamily(p.Family)
		if err != nil {
			cerr.Missing = append(cerr.Missing, fmt.Sprintf("providers[%d].family (unknown family %q)", i, p.Family))
			continue
		}

		key, _, err := keys.Resolve(p.Name)
		if err != nil {
			return nil, fmt.Errorf("resolving %s API key: %w", p.Name, err)
		}
		if key == "" {
			name := credentials.EnvVarForProvider(p.Name)
			if name == "" {
				name = p.Name + " API key"
			}
			cerr.Missing = append(cerr.Missing, name)
			continue
		}

		descriptors = append(descriptors, llm.Descriptor{
			Name:     p.Name,
			Family:   family,
			Endpoint: p.Endpoint,
			APIKey:   key,
			Model:    p.Model,
			Limit:    llm.UsageLimit{Window: p.Window, Max: p.Limit},
			Referer:  p.Referer,
			Title:    p.Title,
		})
	}

	if err := cerr.errorOrNil(); err != nil {
		return nil, err
	}
	return descriptors, nil
}
