package model

import "strings"

// IntegrationType identifies an external tracker the core can sync to.
type IntegrationType string

const (
	IntegrationAzureDevOps IntegrationType = "AZURE_DEVOPS"
	IntegrationGitHub      IntegrationType = "GITHUB"
	IntegrationJira        IntegrationType = "JIRA"
)

// IntegrationTypes lists the supported integrations in a stable order.
var IntegrationTypes = []IntegrationType{
	IntegrationAzureDevOps,
	IntegrationGitHub,
	IntegrationJira,
}

// ParseIntegrationType matches s case-insensitively against the known
// integration types. Config keys arrive lower-cased ("azure_devops").
func ParseIntegrationType(s string) (IntegrationType, bool) {
	t := IntegrationType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Known()
}

// Known reports whether t is a supported integration type.
func (t IntegrationType) Known() bool {
	switch t {
	case IntegrationAzureDevOps, IntegrationGitHub, IntegrationJira:
		return true
	default:
		return false
	}
}

// ConfigKey is the lower-case key used for t in the YAML config.
func (t IntegrationType) ConfigKey() string {
	return strings.ToLower(string(t))
}

// IntegrationConfig holds the enablement flag and the opaque settings
// (credentials, org/project/repo identifiers, default item type) for one
// integration. It is built once and treated as immutable.
type IntegrationConfig struct {
	Type     IntegrationType `mapstructure:"-" yaml:"-"`
	Enabled  bool            `mapstructure:"enabled" yaml:"enabled"`
	Settings map[string]any  `mapstructure:"settings" yaml:"settings"`
}

// Clone returns a copy whose settings map can be handed out safely.
func (c IntegrationConfig) Clone() IntegrationConfig {
	settings := make(map[string]any, len(c.Settings))
	for k, v := range c.Settings {
		settings[k] = v
	}
	c.Settings = settings
	return c
}
