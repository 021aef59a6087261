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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// tokenRequester performs the grant-type-specific HTTP exchange described
// in spec §4.C. It is the seam Coordinator uses so tests can substitute a
// fake transport without standing up a real listener.
type tokenRequester struct {
	client *http.Client
	cfg    *Config
}

func newTokenRequester(client *http.Client, cfg *Config) *tokenRequester {
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	return &tokenRequester{client: client, cfg: cfg}
}

// requestToken builds and sends the form-encoded POST per spec §4.C's
// grant-type field table, then parses and classifies the response.
func (tr *tokenRequester) requestToken(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", string(tr.cfg.GrantType))
	form.Set("client_id", tr.cfg.ClientID)
	form.Set("client_secret", tr.cfg.ClientSecret)
	if tr.cfg.Scope != "" {
		form.Set("scope", tr.cfg.Scope)
	}

	switch tr.cfg.GrantType {
	case GrantPassword:
		form.Set("username", tr.cfg.Username)
		form.Set("password", tr.cfg.Password)
	case GrantAuthorizationCode:
		form.Set("code", tr.cfg.AuthorizationCode)
		form.Set("redirect_uri", tr.cfg.RedirectURI)
		if tr.cfg.CodeVerifier != "" {
			form.Set("code_verifier", tr.cfg.CodeVerifier)
		}
	case GrantRefreshToken:
		form.Set("refresh_token", tr.cfg.RefreshToken)
	case GrantJWTBearer:
		form.Set("assertion", tr.cfg.Assertion)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tr.cfg.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, NewInvalidConfigurationError("building token request: %s", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tr.client.Do(req)
	if err != nil {
		return Token{}, err // transport error: left unclassified so retry treats it as transient
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Token{}, err
	}

	return parseTokenResponse(resp.StatusCode, body, time.Now())
}

// tokenSuccessBody is the RFC 6749 §5.1 success shape.
type tokenSuccessBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// tokenErrorBody is the RFC 6749 §5.2 error shape.
type tokenErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// parseTokenResponse implements spec §4.C's response-handling table.
func parseTokenResponse(status int, body []byte, now time.Time) (Token, error) {
	if status < 200 || status >= 300 {
		var eb tokenErrorBody
		if json.Unmarshal(body, &eb) == nil && eb.Error != "" {
			return Token{}, classifyOAuthError(eb.Error, eb.ErrorDescription)
		}
		switch {
		case status == 401 || status == 403:
			return Token{}, NewInvalidCredentialsError("HTTP %d", status)
		case status >= 500:
			return Token{}, NewServiceUnavailableError("HTTP %d", status)
		default:
			return Token{}, NewInvalidEndpointError("HTTP %d", status)
		}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Token{}, NewServiceUnavailableError("malformed response body: %s", err)
	}
	var sb tokenSuccessBody
	if err := json.Unmarshal(body, &sb); err != nil {
		return Token{}, NewServiceUnavailableError("malformed response body: %s", err)
	}
	if strings.TrimSpace(sb.AccessToken) == "" {
		return Token{}, NewServiceUnavailableError("malformed response: missing access_token")
	}
	// expires_in must be present as an integer; 0 is valid and denotes a
	// token that is already expired on arrival (spec §8 scenario 7).
	if _, present := raw["expires_in"]; !present {
		return Token{}, NewServiceUnavailableError("malformed response: missing expires_in")
	}
	if sb.ExpiresIn < 0 {
		return Token{}, NewServiceUnavailableError("malformed response: negative expires_in")
	}

	tokenType := TokenTypeBearer
	switch strings.ToLower(sb.TokenType) {
	case "", "bearer":
		tokenType = TokenTypeBearer
	case "mac":
		tokenType = TokenTypeMAC
	case "basic":
		tokenType = TokenTypeBasic
	}

	var scopes []string
	if sb.Scope != "" {
		scopes = strings.Fields(sb.Scope)
	}

	return newToken(sb.AccessToken, tokenType, now, time.Duration(sb.ExpiresIn)*time.Second, scopes), nil
}
