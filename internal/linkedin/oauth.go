// Package linkedin handles member OAuth and publishing through the LinkedIn REST API.
package linkedin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/linkedin"

	"linketron/internal/credentials"
)

const DefaultAPIBase = "https://api.linkedin.com"

var Scopes = []string{"openid", "profile", "w_member_social", "email"}

type OAuth struct {
	cfg     *oauth2.Config
	apiBase string
	http    *http.Client
}

func NewOAuth(clientID, clientSecret, redirectURL, apiBase string, httpClient *http.Client) *OAuth {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OAuth{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       Scopes,
			Endpoint:     linkedin.Endpoint,
		},
		apiBase: strings.TrimRight(apiBase, "/"),
		http:    httpClient,
	}
}

// WithEndpoint overrides the authorization server, for tests and proxies.
func (o *OAuth) WithEndpoint(e oauth2.Endpoint) *OAuth {
	o.cfg.Endpoint = e
	return o
}

func (o *OAuth) Configured() bool {
	return o.cfg.ClientID != "" && o.cfg.ClientSecret != ""
}

// AuthURL is the consent page the user opens.
func (o *OAuth) AuthURL(state string) string {
	return o.cfg.AuthCodeURL(state)
}

// Exchange turns a pasted code, or the whole redirect URL, into a credential
// record: token exchange first, then the member id from /v2/userinfo.
func (o *OAuth) Exchange(ctx context.Context, input, expectedState string) (credentials.Record, error) {
	code, err := ParseCode(input, expectedState)
	if err != nil {
		return credentials.Record{}, err
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.http)
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return credentials.Record{}, fmt.Errorf("token exchange: %w", err)
	}
	urn, err := o.memberID(ctx, tok)
	if err != nil {
		return credentials.Record{}, err
	}
	return credentials.Record{AccessToken: tok.AccessToken, UserURN: urn}, nil
}

func (o *OAuth) memberID(ctx context.Context, tok *oauth2.Token) (string, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.apiBase+"/v2/userinfo", nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Step: "userinfo", Status: resp.StatusCode, Body: string(body)}
	}
	var info struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return "", fmt.Errorf("decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return "", fmt.Errorf("userinfo: empty member id")
	}
	return info.Sub, nil
}

// ParseCode extracts the authorization code from user input. A URL is checked
// for an error answer and, when it carries a state, for expectedState.
func ParseCode(input, expectedState string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrNoCode
	}
	if !strings.Contains(s, "code=") && !strings.Contains(s, "error=") {
		if strings.ContainsAny(s, " \n\t") || strings.HasPrefix(strings.ToLower(s), "http") {
			return "", ErrNoCode
		}
		return s, nil
	}
	var q url.Values
	if u, err := url.Parse(s); err == nil && u.RawQuery != "" {
		q = u.Query()
	} else if v, err := url.ParseQuery(strings.TrimPrefix(s, "?")); err == nil {
		q = v
	} else {
		return "", ErrNoCode
	}
	if e := q.Get("error"); e != "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = e
		}
		return "", fmt.Errorf("authorization denied: %s", desc)
	}
	if st := q.Get("state"); st != "" && expectedState != "" && st != expectedState {
		return "", ErrStateMismatch
	}
	code := q.Get("code")
	if code == "" {
		return "", ErrNoCode
	}
	return code, nil
}
