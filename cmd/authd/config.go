package main

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig is loaded from config/app.yaml with AUTHD_ env overrides,
// e.g. AUTHD_AUTH__SIGNING_KEY maps to auth.signing_key.
type AppConfig struct {
	Server struct {
		Address string `koanf:"address"`
		Debug   bool   `koanf:"debug"`
	} `koanf:"server"`

	Database struct {
		DSN string `koanf:"dsn"`
	} `koanf:"database"`

	Auth AuthConfig `koanf:"auth"`

	Notifier struct {
		Buffer int `koanf:"buffer"`
	} `koanf:"notifier"`
}

// AuthConfig implements auth.Config.
type AuthConfig struct {
	SigningKey           string   `koanf:"signing_key"`
	TokenExpiration      int      `koanf:"token_expiration"`
	ResetTokenExpiration int      `koanf:"reset_token_expiration"`
	Issuer               string   `koanf:"issuer"`
	Audience             []string `koanf:"audience"`
	BaseURL              string   `koanf:"base_url"`
	ContextKey           string   `koanf:"context_key"`
	AuthScheme           string   `koanf:"auth_scheme"`
	TokenLookup          string   `koanf:"token_lookup"`
}

func (c AuthConfig) GetSigningKey() string        { return c.SigningKey }
func (c AuthConfig) GetTokenExpiration() int      { return c.TokenExpiration }
func (c AuthConfig) GetResetTokenExpiration() int { return c.ResetTokenExpiration }
func (c AuthConfig) GetIssuer() string            { return c.Issuer }
func (c AuthConfig) GetAudience() []string        { return c.Audience }
func (c AuthConfig) GetBaseURL() string           { return c.BaseURL }
func (c AuthConfig) GetContextKey() string        { return c.ContextKey }
func (c AuthConfig) GetAuthScheme() string        { return c.AuthScheme }
func (c AuthConfig) GetTokenLookup() string       { return c.TokenLookup }

const envPrefix = "AUTHD_"

func LoadConfig(path string) (*AppConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	// AUTHD_SERVER__ADDRESS -> server.address
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load environment config")
	}

	cfg := defaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to unmarshal config")
	}

	if cfg.Auth.SigningKey == "" {
		return nil, errors.New("auth.signing_key is required", errors.CategoryOperation)
	}

	return cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Server.Address = ":8080"
	cfg.Database.DSN = "file:authd.db?cache=shared&_pragma=foreign_keys(1)"
	cfg.Notifier.Buffer = 64
	cfg.Auth = AuthConfig{
		TokenExpiration:      24,
		ResetTokenExpiration: 24,
		Issuer:               "authd",
		ContextKey:           "user",
		AuthScheme:           "Bearer",
		TokenLookup:          "header:Authorization",
	}
	return cfg
}
