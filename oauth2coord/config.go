// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

package oauth2coord

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// GrantType names an OAuth2 grant flow (spec §6's configuration table).
type GrantType string

const (
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantJWTBearer         GrantType = "jwt_bearer"
	grantImplicit          GrantType = "implicit" // rejected at validation
)

// Config describes a token endpoint and the grant-type-specific
// credentials needed to refresh against it (spec §6). Load it from the
// environment with LoadConfigFromEnv (grounded on rulio's
// examples/go-client/configuration EnvConfig.go use of
// kelseyhightower/envconfig) or from YAML with LoadConfigFromYAML, or
// build it directly with the per-grant-type constructors below.
type Config struct {
	TokenEndpoint    string        `envconfig:"TOKEN_ENDPOINT" yaml:"tokenEndpoint"`
	ClientID         string        `envconfig:"CLIENT_ID" yaml:"clientId"`
	ClientSecret     string        `envconfig:"CLIENT_SECRET" yaml:"clientSecret"`
	GrantType        GrantType     `envconfig:"GRANT_TYPE" default:"client_credentials" yaml:"grantType"`
	Scope            string        `envconfig:"SCOPE" yaml:"scope"`
	RefreshThreshold time.Duration `envconfig:"REFRESH_THRESHOLD" default:"30s" yaml:"refreshThreshold"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s" yaml:"httpTimeout"`

	// Username, Password: required together for GrantPassword.
	Username string `envconfig:"USERNAME" yaml:"username"`
	Password string `envconfig:"PASSWORD" yaml:"password"`

	// AuthorizationCode, RedirectURI: required together for
	// GrantAuthorizationCode. CodeVerifier is optional (PKCE).
	AuthorizationCode string `envconfig:"AUTHORIZATION_CODE" yaml:"authorizationCode"`
	RedirectURI       string `envconfig:"REDIRECT_URI" yaml:"redirectUri"`
	CodeVerifier      string `envconfig:"CODE_VERIFIER" yaml:"codeVerifier"`

	// RefreshToken: required for GrantRefreshToken.
	RefreshToken string `envconfig:"REFRESH_TOKEN" yaml:"refreshToken"`

	// Assertion: required for GrantJWTBearer.
	Assertion string `envconfig:"ASSERTION" yaml:"assertion"`
}

// LoadConfigFromEnv populates a Config from environment variables using
// the given envconfig prefix, then validates it.
func LoadConfigFromEnv(prefix string) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process(prefix, cfg); err != nil {
		return nil, NewInvalidConfigurationError("reading environment: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFromYAML parses a YAML document into a Config and validates it.
func LoadConfigFromYAML(data []byte) (*Config, error) {
	cfg := &Config{
		GrantType:        GrantClientCredentials,
		RefreshThreshold: 30 * time.Second,
		HTTPTimeout:      10 * time.Second,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewInvalidConfigurationError("parsing YAML: %s", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewClientCredentialsConfig builds a validated Config for the
// client_credentials grant, the only grant with no extra required fields.
func NewClientCredentialsConfig(tokenEndpoint, clientID, clientSecret, scope string) (*Config, error) {
	cfg := defaultedConfig(tokenEndpoint, clientID, clientSecret, scope)
	cfg.GrantType = GrantClientCredentials
	return cfg, cfg.Validate()
}

// NewPasswordConfig builds a validated Config for the password grant.
func NewPasswordConfig(tokenEndpoint, clientID, clientSecret, scope, username, password string) (*Config, error) {
	cfg := defaultedConfig(tokenEndpoint, clientID, clientSecret, scope)
	cfg.GrantType = GrantPassword
	cfg.Username = username
	cfg.Password = password
	return cfg, cfg.Validate()
}

// NewAuthorizationCodeConfig builds a validated Config for the
// authorization_code grant. codeVerifier may be empty (PKCE is optional).
func NewAuthorizationCodeConfig(tokenEndpoint, clientID, clientSecret, scope, code, redirectURI, codeVerifier string) (*Config, error) {
	cfg := defaultedConfig(tokenEndpoint, clientID, clientSecret, scope)
	cfg.GrantType = GrantAuthorizationCode
	cfg.AuthorizationCode = code
	cfg.RedirectURI = redirectURI
	cfg.CodeVerifier = codeVerifier
	return cfg, cfg.Validate()
}

// NewRefreshTokenConfig builds a validated Config for the refresh_token
// grant.
func NewRefreshTokenConfig(tokenEndpoint, clientID, clientSecret, scope, refreshToken string) (*Config, error) {
	cfg := defaultedConfig(tokenEndpoint, clientID, clientSecret, scope)
	cfg.GrantType = GrantRefreshToken
	cfg.RefreshToken = refreshToken
	return cfg, cfg.Validate()
}

// NewJWTBearerConfig builds a validated Config for the jwt_bearer grant.
func NewJWTBearerConfig(tokenEndpoint, clientID, clientSecret, scope, assertion string) (*Config, error) {
	cfg := defaultedConfig(tokenEndpoint, clientID, clientSecret, scope)
	cfg.GrantType = GrantJWTBearer
	cfg.Assertion = assertion
	return cfg, cfg.Validate()
}

func defaultedConfig(tokenEndpoint, clientID, clientSecret, scope string) *Config {
	return &Config{
		TokenEndpoint:    tokenEndpoint,
		ClientID:         clientID,
		ClientSecret:     clientSecret,
		Scope:            scope,
		RefreshThreshold: 30 * time.Second,
		HTTPTimeout:      10 * time.Second,
	}
}

// Validate enforces spec §6's configuration table, including the
// grant-type-specific required-field pairs and the implicit-grant
// rejection.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.TokenEndpoint, "https://") {
		return NewInvalidConfigurationError("tokenEndpoint must start with https://")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return NewInvalidConfigurationError("clientId is required")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return NewInvalidConfigurationError("clientSecret is required")
	}
	if c.GrantType == "" {
		c.GrantType = GrantClientCredentials
	}
	if c.GrantType == grantImplicit {
		return NewInvalidConfigurationError("implicit grant is not supported")
	}
	if c.RefreshThreshold <= 0 {
		return NewInvalidConfigurationError("refreshThreshold must be > 0")
	}
	if c.HTTPTimeout <= 0 {
		return NewInvalidConfigurationError("httpTimeout must be > 0")
	}

	switch c.GrantType {
	case GrantClientCredentials:
		// No additional fields.
	case GrantPassword:
		if c.Username == "" || c.Password == "" {
			return NewInvalidConfigurationError("username and password are both required for password grant")
		}
	case GrantAuthorizationCode:
		if c.AuthorizationCode == "" || c.RedirectURI == "" {
			return NewInvalidConfigurationError("authorizationCode and redirectUri are both required for authorization_code grant")
		}
	case GrantRefreshToken:
		if c.RefreshToken == "" {
			return NewInvalidConfigurationError("refreshToken is required for refresh_token grant")
		}
	case GrantJWTBearer:
		if c.Assertion == "" {
			return NewInvalidConfigurationError("assertion is required for jwt_bearer grant")
		}
	default:
		return NewInvalidConfigurationError("unknown grant type %q", c.GrantType)
	}
	return nil
}
