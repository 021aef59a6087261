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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenResponseSuccess(t *testing.T) {
	body := []byte(`{"access_token":"T1","token_type":"Bearer","expires_in":3600,"scope":"a b"}`)
	tok, err := parseTokenResponse(200, body, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Equal(t, "T1", tok.Value)
	assert.Equal(t, TokenTypeBearer, tok.Type)
	assert.Equal(t, []string{"a", "b"}, tok.Scopes)
	assert.Equal(t, 3600*time.Second, tok.ExpiresAt.Sub(tok.IssuedAt))
}

func TestParseTokenResponseExpiresInZeroIsExpiredNotError(t *testing.T) {
	body := []byte(`{"access_token":"T1","expires_in":0}`)
	tok, err := parseTokenResponse(200, body, time.Now())
	require.NoError(t, err)
	assert.False(t, tok.isValid(time.Now(), 30*time.Second))
}

func TestParseTokenResponseMissingAccessTokenIsMalformed(t *testing.T) {
	_, err := parseTokenResponse(200, []byte(`{"expires_in":3600}`), time.Now())
	require.Error(t, err)
	var sue *ServiceUnavailableError
	assert.ErrorAs(t, err, &sue)
}

func TestParseTokenResponseMissingExpiresInIsMalformed(t *testing.T) {
	_, err := parseTokenResponse(200, []byte(`{"access_token":"T1"}`), time.Now())
	require.Error(t, err)
	var sue *ServiceUnavailableError
	assert.ErrorAs(t, err, &sue)
}

func TestParseTokenResponseOAuthErrorClassification(t *testing.T) {
	cases := []struct {
		oauthErr string
		want     interface{}
	}{
		{"invalid_client", &InvalidCredentialsError{}},
		{"invalid_grant", &InvalidCredentialsError{}},
		{"invalid_request", &InvalidConfigurationError{}},
		{"invalid_scope", &InvalidConfigurationError{}},
		{"unsupported_grant_type", &InvalidConfigurationError{}},
		{"server_error", &ServiceUnavailableError{}},
		{"temporarily_unavailable", &ServiceUnavailableError{}},
		{"something_else", &ServiceUnavailableError{}},
	}
	for _, c := range cases {
		body := []byte(`{"error":"` + c.oauthErr + `"}`)
		_, err := parseTokenResponse(400, body, time.Now())
		require.Error(t, err)
		assert.IsType(t, c.want, err, "oauth error %s", c.oauthErr)
	}
}

func TestParseTokenResponseStatusFallback(t *testing.T) {
	_, err := parseTokenResponse(401, []byte(`{}`), time.Now())
	assert.IsType(t, &InvalidCredentialsError{}, err)

	_, err = parseTokenResponse(503, []byte(`{}`), time.Now())
	assert.IsType(t, &ServiceUnavailableError{}, err)

	_, err = parseTokenResponse(418, []byte(`{}`), time.Now())
	assert.IsType(t, &InvalidEndpointError{}, err)
}
