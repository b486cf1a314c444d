package coach

import (
	"fmt"

	"github.com/haven-labs/coachbot-go/pkg/access"
	"github.com/haven-labs/coachbot-go/pkg/history"
	"github.com/haven-labs/coachbot-go/pkg/llm"
	"github.com/haven-labs/coachbot-go/pkg/llm/deepseek"
	"github.com/haven-labs/coachbot-go/pkg/llm/ollama"
	"github.com/haven-labs/coachbot-go/pkg/llm/openai"
	"github.com/haven-labs/coachbot-go/pkg/profile"
	"github.com/haven-labs/coachbot-go/pkg/storage/mysql"
	"github.com/haven-labs/coachbot-go/pkg/storage/postgres"
	"github.com/haven-labs/coachbot-go/pkg/storage/sqlite"
)

// Storage bundles the per-concern stores opened from one backend,
// plus the close handle for the underlying connection.
type Storage struct {
	Profiles profile.Store
	History  history.Store
	States   access.StateStore

	closer interface{ Close() error }
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// NewProvider creates an LLM provider from configuration.
//
// Supported providers: openai, deepseek, ollama.
func NewProvider(cfg *LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewClient(&openai.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "deepseek":
		return deepseek.NewClient(&deepseek.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case "ollama":
		return ollama.NewClient(&ollama.Config{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	default:
		return nil, NewCoachError("NewProvider",
			fmt.Errorf("%w: unknown llm provider %q", ErrInvalidConfig, cfg.Provider))
	}
}

// NewStorage opens a storage backend from configuration.
//
// Supported providers: sqlite, postgres, mysql.
func NewStorage(cfg *StorageConfig) (*Storage, error) {
	switch cfg.Provider {
	case "sqlite":
		client, err := sqlite.NewClient(&sqlite.Config{DBPath: cfg.SQLitePath})
		if err != nil {
			return nil, err
		}
		return &Storage{
			Profiles: client.Profiles(),
			History:  client.History(),
			States:   client.States(),
			closer:   client,
		}, nil
	case "postgres":
		client, err := postgres.NewClient(&postgres.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		return &Storage{
			Profiles: client.Profiles(),
			History:  client.History(),
			States:   client.States(),
			closer:   client,
		}, nil
	case "mysql":
		client, err := mysql.NewClient(&mysql.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
		})
		if err != nil {
			return nil, err
		}
		return &Storage{
			Profiles: client.Profiles(),
			History:  client.History(),
			States:   client.States(),
			closer:   client,
		}, nil
	default:
		return nil, NewCoachError("NewStorage",
			fmt.Errorf("%w: unknown storage provider %q", ErrInvalidConfig, cfg.Provider))
	}
}
