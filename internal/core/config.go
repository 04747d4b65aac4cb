package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jo-hoe/conceptcheck/internal/backend/aiedit"
	"github.com/jo-hoe/conceptcheck/internal/backend/cache"
	"github.com/jo-hoe/conceptcheck/internal/backend/commandstructure"
	"github.com/jo-hoe/conceptcheck/internal/backend/database"
	"github.com/jo-hoe/conceptcheck/internal/feedback"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort      = 8080
	defaultStorePath = "responses.csv"
)

type ConceptImage struct {
	Path              string `yaml:"path"`
	SvgFallbackWidth  int    `yaml:"svgFallbackWidth"`
	SvgFallbackHeight int    `yaml:"svgFallbackHeight"`
}

type Store struct {
	Type             string `yaml:"type"`
	Path             string `yaml:"path"`
	ConnectionString string `yaml:"connectionString"`
}

// Location is the file path or connection string the configured store type expects.
func (s Store) Location() string {
	if s.Type == database.StoreTypeSQLite {
		return s.ConnectionString
	}
	return s.Path
}

type Cache struct {
	Type string        `yaml:"type"`
	Addr string        `yaml:"addr"`
	TTL  time.Duration `yaml:"ttl"`
}

type Font struct {
	Path string `yaml:"path"`
}

// Form selects a variant preset. The pointer flags override single settings of the preset.
type Form struct {
	Variant            string `yaml:"variant"`
	CollectDescription *bool  `yaml:"collectDescription"`
	CollectSecondRound *bool  `yaml:"collectSecondRound"`
	OfferAIEdit        *bool  `yaml:"offerAIEdit"`
}

type AIEdit struct {
	Enabled        bool          `yaml:"enabled"`
	BaseURL        string        `yaml:"baseURL"`
	Model          string        `yaml:"model"`
	Size           string        `yaml:"size"`
	ResponseFormat string        `yaml:"responseFormat"`
	Timeout        time.Duration `yaml:"timeout"`
	RateInterval   time.Duration `yaml:"rateInterval"`
	Burst          int           `yaml:"burst"`
}

func (a AIEdit) EditorConfig() aiedit.Config {
	return aiedit.Config{
		BaseURL:        a.BaseURL,
		Model:          a.Model,
		Size:           a.Size,
		ResponseFormat: a.ResponseFormat,
		Timeout:        a.Timeout,
		RateInterval:   a.RateInterval,
		Burst:          a.Burst,
	}
}

type Preview struct {
	Commands []commandstructure.CommandConfig `yaml:"commands"`
}

type Sentry struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

type ServiceConfig struct {
	Port         int          `yaml:"port"`
	LogLevel     string       `yaml:"logLevel"`
	ConceptImage ConceptImage `yaml:"conceptImage"`
	Store        Store        `yaml:"store"`
	Cache        Cache        `yaml:"cache"`
	Font         Font         `yaml:"font"`
	Form         Form         `yaml:"form"`
	AIEdit       AIEdit       `yaml:"aiEdit"`
	Preview      Preview      `yaml:"preview"`
	Sentry       Sentry       `yaml:"sentry"`
}

// LoadConfig loads configuration from the specified YAML file
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config ServiceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return &config, nil
}

func (c *ServiceConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Store.Type == "" {
		c.Store.Type = database.StoreTypeCSV
	}
	if c.Store.Type == database.StoreTypeCSV && c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Cache.Type == "" {
		c.Cache.Type = cache.TypeMemory
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = cache.DefaultTTL
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *ServiceConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ConceptImage.Path == "" {
		return fmt.Errorf("conceptImage.path is required")
	}

	switch c.Store.Type {
	case database.StoreTypeCSV:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for csv stores")
		}
	case database.StoreTypeSQLite:
		if c.Store.ConnectionString == "" {
			return fmt.Errorf("store.connectionString is required for sqlite stores")
		}
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}

	switch c.Cache.Type {
	case cache.TypeMemory:
	case cache.TypeRedis:
		if c.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required for redis caches")
		}
	default:
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}

	if _, err := c.Variant(); err != nil {
		return err
	}
	if err := validateCommands(c.Preview.Commands); err != nil {
		return fmt.Errorf("invalid preview command configuration: %w", err)
	}
	return nil
}

// Variant resolves the configured preset and applies the explicit overrides.
func (c *ServiceConfig) Variant() (feedback.Variant, error) {
	v, err := feedback.VariantByName(c.Form.Variant)
	if err != nil {
		return feedback.Variant{}, err
	}
	if c.Form.CollectDescription != nil {
		v.CollectDescription = *c.Form.CollectDescription
	}
	if c.Form.CollectSecondRound != nil {
		v.CollectSecondRound = *c.Form.CollectSecondRound
	}
	if c.Form.OfferAIEdit != nil {
		v.OfferAIEdit = *c.Form.OfferAIEdit
	}
	return v, nil
}

// SlogLevel returns the configured log level. Validate has already rejected unknown names.
func (c *ServiceConfig) SlogLevel() slog.Level {
	level, _ := parseLogLevel(c.LogLevel)
	return level
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []commandstructure.CommandConfig) error {
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		seenNames[cmd.Name] = true

		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command: %s (registered: %s)", cmd.Name,
				strings.Join(commandstructure.DefaultRegistry.GetRegisteredNames(), ", "))
		}
	}

	return nil
}
