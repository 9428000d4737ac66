package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.OpenAIModel == "" || cfg.AnthropicModel == "" || cfg.GoogleModel == "" {
		t.Error("model defaults must not be empty")
	}
	if cfg.SuggestOnStartup {
		t.Error("SuggestOnStartup should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("SUGGEST_ON_STARTUP", "true")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("DBDriver = %q", cfg.DBDriver)
	}
	if cfg.OpenAIModel != "gpt-4o" {
		t.Errorf("OpenAIModel = %q", cfg.OpenAIModel)
	}
	if !cfg.SuggestOnStartup {
		t.Error("SuggestOnStartup not overridden")
	}
}

func TestGetEnvBoolBadValue(t *testing.T) {
	t.Setenv("SUGGEST_ON_STARTUP", "banana")
	if Load().SuggestOnStartup {
		t.Error("unparseable bool should fall back to default")
	}
}
