package news

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	DefaultRetentionLimit = 50
	DefaultTimeout        = 30 // seconds
)

type ConfigCache struct {
	categoriesDir string
	cache         map[string]*Config
	mu            sync.RWMutex
}

func NewConfigCache(categoriesDir string) *ConfigCache {
	return &ConfigCache{
		categoriesDir: categoriesDir,
		cache:         make(map[string]*Config),
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.categoriesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.categoriesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		// Derive category name from filename (remove .yml extension)
		fileName := filepath.Base(file)
		categoryName := fileName[:len(fileName)-4]

		config, err := cc.LoadConfig(categoryName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Category configuration loaded", "category", categoryName, "enabled", config.Settings.Enabled, "outlets", len(config.Feeds), "retention_limit", config.Settings.RetentionLimit)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(categoryName string) (*Config, error) {
	configFile := cc.getConfigFilePath(categoryName)
	config, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	// Set category name from parameter
	config.Name = categoryName

	if err := cc.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[config.Name] = config

	return config, nil
}

func (cc *ConfigCache) GetConfig(categoryName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	config, ok := cc.cache[categoryName]
	if !ok {
		return nil, fmt.Errorf("category config with name '%s' not found", categoryName)
	}
	return config, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range cc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if config.Settings.RetentionLimit == 0 {
		config.Settings.RetentionLimit = DefaultRetentionLimit
	}
	if config.Settings.Timeout == 0 {
		config.Settings.Timeout = DefaultTimeout
	}

	return &config, nil
}

func (cc *ConfigCache) validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is nil")
	}

	if config.Title == "" {
		return fmt.Errorf("category title is required")
	}

	for i, feedRef := range config.Feeds {
		if feedRef.URL == "" {
			return fmt.Errorf("feed at index %d has no URL", i)
		}
	}

	nonNegativeFields := map[string]int{
		"retention limit": config.Settings.RetentionLimit,
		"timeout":         config.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	validFields := map[string]bool{
		"title":   true,
		"content": true,
		"source":  true,
		"link":    true,
	}

	for i, filter := range config.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

func (cc *ConfigCache) getConfigFilePath(categoryName string) string {
	return filepath.Join(cc.categoriesDir, categoryName+".yml")
}
