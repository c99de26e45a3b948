package model

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// KeyringPrefix marks a setting value that must be resolved from the
// system keyring, e.g. "keyring:itsm-sync-jira-token".
const KeyringPrefix = "keyring:"

// secretSettings lists, per integration, the settings that may be
// overridden from the environment as ITSM_SYNC_<TYPE>_<KEY>.
var secretSettings = map[IntegrationType][]string{
	IntegrationAzureDevOps: {"pat"},
	IntegrationGitHub:      {"token"},
	IntegrationJira:        {"email", "api_token"},
}

// defaultSettings are the blank settings "init" writes per integration.
var defaultSettings = map[IntegrationType]map[string]any{
	IntegrationAzureDevOps: {"org": "", "project": "", "work_item_type": "Task"},
	IntegrationGitHub:      {"owner": "", "repo": ""},
	IntegrationJira:        {"domain": "", "email": "", "project_key": "", "issue_type_id": ""},
}

// keyringSetting is the credential each integration reads from the
// keyring by default.
var keyringSetting = map[IntegrationType]string{
	IntegrationAzureDevOps: "pat",
	IntegrationGitHub:      "token",
	IntegrationJira:        "api_token",
}

// keyringName is the default keyring entry holding setting key of typ,
// e.g. "itsm-sync-jira-api-token".
func keyringName(typ IntegrationType, key string) string {
	kebab := func(s string) string { return strings.ReplaceAll(s, "_", "-") }
	return "itsm-sync-" + kebab(typ.ConfigKey()) + "-" + kebab(key)
}

// DatabaseConfig locates the local link/sync-log database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// HTTPConfig holds transport settings shared by all adapters.
type HTTPConfig struct {
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// Integrations is keyed by the lower-case integration type
	// ("azure_devops", "github", "jira").
	Integrations map[string]IntegrationConfig `mapstructure:"integrations" yaml:"integrations"`
	Database     DatabaseConfig               `mapstructure:"database" yaml:"database"`
	Log          LogConfig                    `mapstructure:"log" yaml:"log"`
	HTTP         HTTPConfig                   `mapstructure:"http" yaml:"http"`
}

// configDir returns ~/.config/itsm-sync, or "." when the home directory
// cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "itsm-sync")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/itsm-sync/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// DefaultAppConfig returns a configuration with every integration present
// but disabled. Credential settings point at keyring entries so that a
// freshly written config never contains secrets.
func DefaultAppConfig() *AppConfig {
	integrations := make(map[string]IntegrationConfig, len(IntegrationTypes))
	for _, typ := range IntegrationTypes {
		settings := maps.Clone(defaultSettings[typ])
		key := keyringSetting[typ]
		settings[key] = KeyringPrefix + keyringName(typ, key)
		integrations[typ.ConfigKey()] = IntegrationConfig{Settings: settings}
	}
	return &AppConfig{
		Integrations: integrations,
		Database:     DatabaseConfig{Path: filepath.Join(configDir(), "itsm-sync.db")},
		Log:          LogConfig{Level: "info", Format: "text"},
		HTTP:         HTTPConfig{TimeoutSec: 30},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
// Secret settings of configured integrations can be overridden from the
// environment (ITSM_SYNC_JIRA_API_TOKEN and friends).
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("database.path", filepath.Join(configDir(), "itsm-sync.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.timeout_sec", 30)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return DefaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Integrations == nil {
		cfg.Integrations = make(map[string]IntegrationConfig)
	}

	for _, typ := range IntegrationTypes {
		keys := secretSettings[typ]
		ic, ok := cfg.Integrations[typ.ConfigKey()]
		if !ok {
			continue
		}
		for _, key := range keys {
			settingPath := fmt.Sprintf("integrations.%s.settings.%s", typ.ConfigKey(), key)
			envName := "ITSM_SYNC_" + string(typ) + "_" + strings.ToUpper(key)
			if err := v.BindEnv(settingPath, envName); err != nil {
				return nil, fmt.Errorf("binding %s: %w", envName, err)
			}
			if value := v.GetString(settingPath); value != "" {
				if ic.Settings == nil {
					ic.Settings = make(map[string]any)
				}
				ic.Settings[key] = value
			}
		}
		cfg.Integrations[typ.ConfigKey()] = ic
	}

	return cfg, nil
}

// ResolveSecrets replaces every "keyring:<name>" setting value with the
// secret returned by lookup. Only enabled integrations are resolved so a
// missing keyring entry for an unused tracker is not an error.
func (c *AppConfig) ResolveSecrets(lookup func(name string) (string, error)) error {
	for key, ic := range c.Integrations {
		if !ic.Enabled {
			continue
		}
		for name, raw := range ic.Settings {
			value, ok := raw.(string)
			if !ok || !strings.HasPrefix(value, KeyringPrefix) {
				continue
			}
			secret, err := lookup(strings.TrimPrefix(value, KeyringPrefix))
			if err != nil {
				return fmt.Errorf("resolving %s setting %q: %w", key, name, err)
			}
			ic.Settings[name] = secret
		}
	}
	return nil
}

// IntegrationConfigs converts the YAML-keyed integrations into the typed
// map the dispatcher is built from. Unknown keys are rejected.
func (c *AppConfig) IntegrationConfigs() (map[IntegrationType]IntegrationConfig, error) {
	keys := make([]string, 0, len(c.Integrations))
	for key := range c.Integrations {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	configs := make(map[IntegrationType]IntegrationConfig, len(keys))
	for _, key := range keys {
		typ, ok := ParseIntegrationType(key)
		if !ok {
			return nil, fmt.Errorf("config: unknown integration %q", key)
		}
		ic := c.Integrations[key].Clone()
		ic.Type = typ
		configs[typ] = ic
	}
	return configs, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("integrations", cfg.Integrations)
	v.Set("database", cfg.Database)
	v.Set("log", cfg.Log)
	v.Set("http", cfg.HTTP)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
