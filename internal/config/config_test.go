package config

import (
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:   AppConfig{Env: "local", Port: 8080},
		DB:    DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "voicecampaign"},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Auth:  AuthConfig{JWTSecret: "secret", OperatorUser: "ops", OperatorPassword: "pw"},
		Vapi:  VapiConfig{APIKey: "key", PhoneNumberID: "pn-1", ServerURL: "https://agent.example.com"},
	}
}

func TestLoad_ReportsMissingRequired(t *testing.T) {
	// Ensure a clean env by not setting anything and calling validation directly.
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "voice-campaign"
	c.Auth.JWTAudience = "api"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Campaign.PollMaxAttempts != 60 {
		t.Fatalf("expected 60 poll attempts default, got %d", c.Campaign.PollMaxAttempts)
	}
	if c.Campaign.PollInterval != 5*time.Second {
		t.Fatalf("expected 5s poll interval default, got %v", c.Campaign.PollInterval)
	}
	if c.Vapi.BaseURL != "https://api.vapi.ai" {
		t.Fatalf("expected provider base url default, got %q", c.Vapi.BaseURL)
	}
}

func TestValidate_IncompleteSMTPBlock(t *testing.T) {
	c := validBase()
	c.SMTP.Host = "smtp.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for SMTP_HOST without port/from/to")
	}
}

func TestWebhookURL_TrimsTrailingSlash(t *testing.T) {
	c := validBase()
	c.Vapi.ServerURL = "https://agent.example.com/"
	if got := c.WebhookURL(); got != "https://agent.example.com/vapi-webhook" {
		t.Fatalf("unexpected webhook url %q", got)
	}
}
