package config

import "testing"

func validConfig() *Config {
	return &Config{
		Env:                "development",
		ListenAddr:         ":8000",
		DefaultLanguage:    "en-US",
		TranscribeProvider: ProviderDeepgram,
		AssistantBaseURL:   "http://localhost:9000",
	}
}

func TestValidate_Valid(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_DeepgramKeyNotRequiredAtBoot(t *testing.T) {
	cfg := validConfig()
	cfg.DeepgramAPIKey = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("missing deepgram key must not fail validation, got %v", err)
	}
}

func TestValidate_GoogleProviderRequiresCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.TranscribeProvider = ProviderGoogle
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for google provider without credentials")
	}
	cfg.GoogleCloudProjectID = "project-id"
	cfg.GoogleCloudCredentialsJSON = `{"type":"service_account"}`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.TranscribeProvider = "whisper"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestValidate_MissingRequired(t *testing.T) {
	cfg := &Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when required fields are missing")
	}
}

func TestIsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	if !cfg.IsDevelopment() {
		t.Fatal("expected development mode")
	}
	cfg.Env = "production"
	if cfg.IsDevelopment() {
		t.Fatal("expected non-development mode")
	}
}
