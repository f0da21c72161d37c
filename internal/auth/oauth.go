// Package auth implements the OAuth sign-in flow, session tokens, and the
// middleware that turns a session cookie back into an authenticated
// principal.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User visits /auth/{provider}/{role} → we issue a signed state token
//     carrying the requested role and redirect to the provider
//  2. The provider calls back /auth/{provider}/callback with a code and
//     echoes our state token
//  3. We verify the state, exchange the code for a normalized Profile, and
//     hand it to the provisioning service
//  4. The resulting principal's actor ID is issued as a JWT in an HttpOnly
//     cookie
//  5. On subsequent requests, middleware validates the cookie and rebuilds
//     the principal from the database
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Canonical provider tags stored in account_identities.provider.
const (
	ProviderGoogle = "GOOGLE"
	ProviderGitHub = "GITHUB"
)

// Profile is the normalized external identity every provider reduces to.
// The provisioning service only ever sees this shape — it has no idea which
// provider API produced it.
type Profile struct {
	Provider       string // canonical uppercase tag (GOOGLE, GITHUB)
	ProviderUserID string // the provider's stable user ID, as a string
	Email          string // may be empty (GitHub users can hide their email)
	EmailVerified  bool   // whether the provider vouches for the email
	Username       string // provider handle (GitHub login); empty for Google
	DisplayName    string // human-readable name, falls back to the handle
	AvatarURL      string
	AccessToken    string // kept so the email side-channel can be queried
}

// Provider abstracts one OAuth integration. Both implementations wrap
// golang.org/x/oauth2 for the Authorization Code flow: the code-for-token
// exchange happens server-to-server with the client secret, so the access
// token never touches the browser.
type Provider interface {
	// Name returns the canonical provider tag.
	Name() string
	// AuthURL returns the provider authorization URL for the given state.
	AuthURL(state string) string
	// Exchange trades the callback code for a normalized profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// GitHubProvider implements Provider for GitHub OAuth apps.
//
// Scopes: "read:user" for the public profile, "user:email" so the email
// side-channel (/user/emails) works for accounts with a hidden email.
type GitHubProvider struct {
	config  *oauth2.Config
	userURL string // overridable in tests
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
// callbackURL must exactly match the OAuth app's registered callback.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userURL: "https://api.github.com/user",
	}
}

func (p *GitHubProvider) Name() string { return ProviderGitHub }

func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// githubUser is the portion of the GitHub /user response we care about.
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"` // empty if hidden in GitHub settings
	AvatarURL string `json:"avatar_url"`
}

func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging GitHub OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// Authorization header to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.userURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}
	if gh.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	displayName := gh.Name
	if displayName == "" {
		displayName = gh.Login
	}

	return &Profile{
		Provider:       ProviderGitHub,
		ProviderUserID: strconv.FormatInt(gh.ID, 10),
		Email:          gh.Email,
		EmailVerified:  gh.Email != "", // a public profile email is the account's own
		Username:       gh.Login,
		DisplayName:    displayName,
		AvatarURL:      gh.AvatarURL,
		AccessToken:    token.AccessToken,
	}, nil
}

// GoogleProvider implements Provider for Google OAuth clients.
// Google always reports an email along with a verified_email flag, so the
// email side-channel fallback never applies here.
type GoogleProvider struct {
	config      *oauth2.Config
	userInfoURL string // overridable in tests
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
	}
}

func (p *GoogleProvider) Name() string { return ProviderGoogle }

func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging Google OAuth code: %w", err)
	}

	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gu googleUser
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}
	if gu.ID == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty ID)")
	}

	displayName := gu.Name
	if displayName == "" {
		displayName = gu.Email
	}

	return &Profile{
		Provider:       ProviderGoogle,
		ProviderUserID: gu.ID,
		Email:          gu.Email,
		EmailVerified:  gu.VerifiedEmail,
		DisplayName:    displayName,
		AvatarURL:      gu.Picture,
		AccessToken:    token.AccessToken,
	}, nil
}
