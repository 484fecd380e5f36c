package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
	LLM    LLM    `yaml:"llm"`
	Pass   Pass   `yaml:"pass"`
	Claim  Claim  `yaml:"claim"`
	Log    Log    `yaml:"log"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, honoring a container environment
// and an explicit override.
func (s Server) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return s.Host
}

// Auth holds the shared-secret bearer token guarding the generation
// endpoints.
type Auth struct {
	APIToken string `yaml:"api_token"`
}

// LLM holds the completion endpoint configuration for the email
// interpretation pipeline.
type LLM struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration.
func (c LLM) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Pass holds wallet pass signing configuration. Certificate and Key
// are mandatory for the compose-pass operation; Passphrase and
// WWDRCertificate are optional.
type Pass struct {
	Certificate     string `yaml:"certificate"`
	Key             string `yaml:"key"`
	Passphrase      string `yaml:"passphrase"`
	WWDRCertificate string `yaml:"wwdr_certificate"`
	Icon            string `yaml:"icon"`
	TypeIdentifier  string `yaml:"type_identifier"`
	TeamIdentifier  string `yaml:"team_identifier"`
}

// Claim holds claim packet rendering configuration.
type Claim struct {
	Organization string `yaml:"organization"`
}

// Log holds logging configuration.
type Log struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Load reads and parses the configuration file, then applies defaults.
// A missing file is not an error; defaults plus environment variables
// are enough to run everything except pass signing.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 2
	}
	if cfg.Pass.TypeIdentifier == "" {
		cfg.Pass.TypeIdentifier = "pass.com.coverly.warranty"
	}
	if cfg.Pass.TeamIdentifier == "" {
		cfg.Pass.TeamIdentifier = "COVERLY001"
	}
	if cfg.Pass.Icon == "" {
		cfg.Pass.Icon = "assets/icon.png"
	}
	if cfg.Claim.Organization == "" {
		cfg.Claim.Organization = "Coverly"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "INFO"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in
// .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("API_TOKEN"); v != "" {
		cfg.Auth.APIToken = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("PASS_CERTIFICATE"); v != "" {
		cfg.Pass.Certificate = v
	}
	if v := os.Getenv("PASS_KEY"); v != "" {
		cfg.Pass.Key = v
	}
	if v := os.Getenv("PASS_KEY_PASSPHRASE"); v != "" {
		cfg.Pass.Passphrase = v
	}
	if v := os.Getenv("PASS_WWDR_CERTIFICATE"); v != "" {
		cfg.Pass.WWDRCertificate = v
	}
	if v := os.Getenv("PASS_TYPE_IDENTIFIER"); v != "" {
		cfg.Pass.TypeIdentifier = v
	}
	if v := os.Getenv("PASS_TEAM_IDENTIFIER"); v != "" {
		cfg.Pass.TeamIdentifier = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
