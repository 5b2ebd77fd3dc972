package config

import "fmt"

const (
	ProviderDeepgram = "deepgram"
	ProviderGoogle   = "google"
)

type Config struct {
	Env                        string
	ListenAddr                 string
	DefaultLanguage            string
	TranscribeProvider         string
	DeepgramAPIKey             string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	DatabaseURL                string
	AssistantBaseURL           string
	AssistantAPIKey            string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.TranscribeProvider {
	case ProviderDeepgram:
		// A missing Deepgram key is not a boot failure: capture start
		// reports it and stays stopped.
	case ProviderGoogle:
		if c.GoogleCloudProjectID == "" || c.GoogleCloudCredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_CLOUD_PROJECT_ID and GOOGLE_CLOUD_CREDENTIALS_JSON are required when TRANSCRIBE_PROVIDER=google")
		}
	default:
		return fmt.Errorf("TRANSCRIBE_PROVIDER must be %q or %q, got %q", ProviderDeepgram, ProviderGoogle, c.TranscribeProvider)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "DEFAULT_LANGUAGE", value: c.DefaultLanguage},
		{name: "ASSISTANT_BASE_URL", value: c.AssistantBaseURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
