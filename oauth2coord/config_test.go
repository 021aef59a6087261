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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCredentialsConfigValid(t *testing.T) {
	cfg, err := NewClientCredentialsConfig("https://auth.example.com/token", "id", "secret", "read")
	require.NoError(t, err)
	assert.Equal(t, GrantClientCredentials, cfg.GrantType)
}

func TestTokenEndpointMustBeHTTPS(t *testing.T) {
	_, err := NewClientCredentialsConfig("http://auth.example.com/token", "id", "secret", "")
	require.Error(t, err)
	var ice *InvalidConfigurationError
	assert.ErrorAs(t, err, &ice)
}

func TestImplicitGrantRejected(t *testing.T) {
	cfg := defaultedConfig("https://auth.example.com/token", "id", "secret", "")
	cfg.GrantType = grantImplicit
	err := cfg.Validate()
	require.Error(t, err)
}

func TestPasswordGrantRequiresUsernameAndPassword(t *testing.T) {
	_, err := NewPasswordConfig("https://auth.example.com/token", "id", "secret", "", "", "")
	require.Error(t, err)

	cfg, err := NewPasswordConfig("https://auth.example.com/token", "id", "secret", "", "bob", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Username)
}

func TestAuthorizationCodeGrantRequiresCodeAndRedirect(t *testing.T) {
	_, err := NewAuthorizationCodeConfig("https://auth.example.com/token", "id", "secret", "", "", "", "")
	require.Error(t, err)

	cfg, err := NewAuthorizationCodeConfig("https://auth.example.com/token", "id", "secret", "", "code123", "https://app.example.com/cb", "")
	require.NoError(t, err)
	assert.Equal(t, "code123", cfg.AuthorizationCode)
}

func TestRefreshTokenGrantRequiresToken(t *testing.T) {
	_, err := NewRefreshTokenConfig("https://auth.example.com/token", "id", "secret", "", "")
	require.Error(t, err)
}

func TestJWTBearerGrantRequiresAssertion(t *testing.T) {
	_, err := NewJWTBearerConfig("https://auth.example.com/token", "id", "secret", "", "")
	require.Error(t, err)
}

func TestLoadConfigFromYAML(t *testing.T) {
	yamlDoc := []byte(`
tokenEndpoint: https://auth.example.com/token
clientId: id
clientSecret: secret
grantType: client_credentials
`)
	cfg, err := LoadConfigFromYAML(yamlDoc)
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/token", cfg.TokenEndpoint)
	assert.Equal(t, GrantClientCredentials, cfg.GrantType)
}
