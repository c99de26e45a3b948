package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Integrations) != 3 {
		t.Errorf("got %d integrations, want 3", len(cfg.Integrations))
	}
	if cfg.HTTP.TimeoutSec != 30 {
		t.Errorf("timeout = %d, want 30", cfg.HTTP.TimeoutSec)
	}
}

func TestLoadConfigEnvOverridesSecret(t *testing.T) {
	path := writeFile(t, `integrations:
  jira:
    enabled: true
    settings:
      domain: acme
      email: ops@example.com
      api_token: from-file
      issue_type_id: 10001
`)
	t.Setenv("ITSM_SYNC_JIRA_API_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	jira := cfg.Integrations["jira"]
	if !jira.Enabled {
		t.Error("jira should be enabled")
	}
	if got := jira.Settings["api_token"]; got != "from-env" {
		t.Errorf("api_token = %v, want from-env", got)
	}
	if got := jira.Settings["email"]; got != "ops@example.com" {
		t.Errorf("email = %v", got)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level default = %q, want info", cfg.Log.Level)
	}
}

func TestResolveSecrets(t *testing.T) {
	cfg := &AppConfig{Integrations: map[string]IntegrationConfig{
		"github": {Enabled: true, Settings: map[string]any{
			"token": KeyringPrefix + "gh",
			"owner": "acme",
		}},
		"jira": {Enabled: false, Settings: map[string]any{
			"api_token": KeyringPrefix + "jira",
		}},
	}}

	var looked []string
	err := cfg.ResolveSecrets(func(name string) (string, error) {
		looked = append(looked, name)
		return "secret-" + name, nil
	})
	if err != nil {
		t.Fatalf("ResolveSecrets: %v", err)
	}
	if got := cfg.Integrations["github"].Settings["token"]; got != "secret-gh" {
		t.Errorf("token = %v, want secret-gh", got)
	}
	if got := cfg.Integrations["jira"].Settings["api_token"]; got != KeyringPrefix+"jira" {
		t.Errorf("disabled integration resolved: %v", got)
	}
	if len(looked) != 1 {
		t.Errorf("looked up %v, want only gh", looked)
	}
}

func TestResolveSecretsPropagatesLookupError(t *testing.T) {
	cfg := &AppConfig{Integrations: map[string]IntegrationConfig{
		"azure_devops": {Enabled: true, Settings: map[string]any{"pat": KeyringPrefix + "pat"}},
	}}
	boom := errors.New("locked")

	err := cfg.ResolveSecrets(func(string) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped lookup error", err)
	}
}

func TestIntegrationConfigs(t *testing.T) {
	cfg := &AppConfig{Integrations: map[string]IntegrationConfig{
		"azure_devops": {Enabled: true, Settings: map[string]any{"org": "contoso"}},
	}}

	configs, err := cfg.IntegrationConfigs()
	if err != nil {
		t.Fatalf("IntegrationConfigs: %v", err)
	}
	ado, ok := configs[IntegrationAzureDevOps]
	if !ok || ado.Type != IntegrationAzureDevOps || !ado.Enabled {
		t.Fatalf("unexpected configs: %+v", configs)
	}

	ado.Settings["org"] = "mutated"
	if cfg.Integrations["azure_devops"].Settings["org"] != "contoso" {
		t.Error("IntegrationConfigs shares settings with the source config")
	}

	cfg.Integrations["servicenow"] = IntegrationConfig{}
	if _, err := cfg.IntegrationConfigs(); err == nil {
		t.Error("expected error for unknown integration key")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultAppConfig()
	gh := cfg.Integrations["github"]
	gh.Enabled = true
	gh.Settings["owner"] = "acme"
	cfg.Integrations["github"] = gh

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !loaded.Integrations["github"].Enabled {
		t.Error("github not enabled after round trip")
	}
	if got := loaded.Integrations["github"].Settings["owner"]; got != "acme" {
		t.Errorf("owner = %v, want acme", got)
	}
}

func TestDefaultAppConfigCoversEveryIntegration(t *testing.T) {
	cfg := DefaultAppConfig()

	want := map[IntegrationType]string{
		IntegrationAzureDevOps: "pat",
		IntegrationGitHub:      "token",
		IntegrationJira:        "api_token",
	}
	for _, typ := range IntegrationTypes {
		ic, ok := cfg.Integrations[typ.ConfigKey()]
		if !ok {
			t.Errorf("%s missing from default config", typ)
			continue
		}
		if ic.Enabled {
			t.Errorf("%s enabled by default", typ)
		}
		if _, ok := secretSettings[typ]; !ok {
			t.Errorf("%s has no environment-overridable secrets", typ)
		}
		if got := ic.Settings[want[typ]]; got != KeyringPrefix+keyringName(typ, want[typ]) {
			t.Errorf("%s %s = %v, want a keyring reference", typ, want[typ], got)
		}
	}
	if got := keyringName(IntegrationAzureDevOps, "pat"); got != "itsm-sync-azure-devops-pat" {
		t.Errorf("keyringName = %q", got)
	}

	other := DefaultAppConfig()
	other.Integrations["github"].Settings["owner"] = "mutated"
	if cfg.Integrations["github"].Settings["owner"] != "" {
		t.Error("default configs share settings maps")
	}
}

func TestParseEnums(t *testing.T) {
	if s, ok := ParseStatus("in progress"); !ok || s != StatusInProgress {
		t.Errorf("ParseStatus(in progress) = %q, %v", s, ok)
	}
	if _, ok := ParseStatus("blocked"); ok {
		t.Error("blocked should not parse")
	}
	if p, ok := ParsePriority("critical"); !ok || p != PriorityCritical {
		t.Errorf("ParsePriority(critical) = %q, %v", p, ok)
	}
	if typ, ok := ParseIntegrationType("azure_devops"); !ok || typ != IntegrationAzureDevOps {
		t.Errorf("ParseIntegrationType(azure_devops) = %q, %v", typ, ok)
	}
}
