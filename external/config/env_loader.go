package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/amplifiedhq/amplified/internal/config"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	ListenAddr                 string `env:"LISTEN_ADDR" envDefault:":8000"`
	DefaultLanguage            string `env:"DEFAULT_LANGUAGE" envDefault:"en-US"`
	TranscribeProvider         string `env:"TRANSCRIBE_PROVIDER" envDefault:"deepgram"`
	DeepgramAPIKey             string `env:"DEEPGRAM_API_KEY"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	DatabaseURL                string `env:"DATABASE_URL"`
	AssistantBaseURL           string `env:"ASSISTANT_BASE_URL,required"`
	AssistantAPIKey            string `env:"ASSISTANT_API_KEY"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		ListenAddr:                 raw.ListenAddr,
		DefaultLanguage:            raw.DefaultLanguage,
		TranscribeProvider:         raw.TranscribeProvider,
		DeepgramAPIKey:             raw.DeepgramAPIKey,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		DatabaseURL:                raw.DatabaseURL,
		AssistantBaseURL:           raw.AssistantBaseURL,
		AssistantAPIKey:            raw.AssistantAPIKey,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
