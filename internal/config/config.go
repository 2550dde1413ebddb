package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration for the app state layer.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Events   EventsConfig   `yaml:"events"`
}

// APIConfig describes how to reach the MediPal backend API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig describes the token endpoint used to obtain backend access tokens.
type AuthConfig struct {
	TokenURL     string `yaml:"token_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// PaymentConfig describes the payment gateway redirect contract.
type PaymentConfig struct {
	GatewayHost     string `yaml:"gateway_host"`
	SuccessFragment string `yaml:"success_fragment"`
	FailureFragment string `yaml:"failure_fragment"`
	CallbackAddr    string `yaml:"callback_addr"`
}

// SnapshotConfig describes where the persisted state tree lives.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// EventsConfig describes the RabbitMQ connection for domain events.
type EventsConfig struct {
	RabbitMQURL string `yaml:"rabbitmq_url"`
}

// Defaults point at a local development stack.
const (
	DefaultAPIBaseURL   = "http://localhost:8081"
	DefaultTokenURL     = "http://localhost:8081/auth/token"
	DefaultCallbackAddr = ":8090"
	DefaultSnapshotPath = "appstate.json"
	DefaultGatewayHost  = "checkout.paystack.com"
	DefaultSuccessFrag  = "payment-success"
	DefaultFailureFrag  = "payment-failed"
)

// Load reads an optional YAML file and applies environment overrides.
// Env variables always win so deployments can override a checked-in file.
func Load(path string) (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			TokenURL: DefaultTokenURL,
		},
		Payment: PaymentConfig{
			GatewayHost:     DefaultGatewayHost,
			SuccessFragment: DefaultSuccessFrag,
			FailureFragment: DefaultFailureFrag,
			CallbackAddr:    DefaultCallbackAddr,
		},
		Snapshot: SnapshotConfig{Path: DefaultSnapshotPath},
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 30 * time.Second
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.API.Timeout = d
		}
	}
	if v := os.Getenv("AUTH_TOKEN_URL"); v != "" {
		cfg.Auth.TokenURL = v
	}
	if v := os.Getenv("AUTH_CLIENT_ID"); v != "" {
		cfg.Auth.ClientID = v
	}
	if v := os.Getenv("AUTH_CLIENT_SECRET"); v != "" {
		cfg.Auth.ClientSecret = v
	}
	if v := os.Getenv("PAYMENT_GATEWAY_HOST"); v != "" {
		cfg.Payment.GatewayHost = v
	}
	if v := os.Getenv("PAYMENT_SUCCESS_FRAGMENT"); v != "" {
		cfg.Payment.SuccessFragment = v
	}
	if v := os.Getenv("PAYMENT_FAILURE_FRAGMENT"); v != "" {
		cfg.Payment.FailureFragment = v
	}
	if v := os.Getenv("PAYMENT_CALLBACK_ADDR"); v != "" {
		cfg.Payment.CallbackAddr = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		cfg.Events.RabbitMQURL = v
	}
}
