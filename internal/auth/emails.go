package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// EmailResolver queries GitHub's authenticated email listing when a user's
// profile has no public email. GitHub accounts very often hide the email on
// the public profile while still having a verified login address — the
// /user/emails endpoint (gated behind the user:email scope) exposes it.
//
// The resolver NEVER fails: any transport error, non-2xx status, or
// empty/malformed payload simply means "no email available" and the caller
// falls back to a synthetic address. Sign-in must not break because a
// side-channel lookup hiccuped.
type EmailResolver struct {
	client *http.Client
	url    string
}

// NewEmailResolver creates a resolver against the real GitHub API.
func NewEmailResolver() *EmailResolver {
	return &EmailResolver{
		client: &http.Client{Timeout: 10 * time.Second},
		url:    "https://api.github.com/user/emails",
	}
}

// NewEmailResolverForTest creates a resolver pointed at a test server.
func NewEmailResolverForTest(url string) *EmailResolver {
	return &EmailResolver{client: &http.Client{Timeout: 5 * time.Second}, url: url}
}

// emailEntry mirrors one element of the GitHub /user/emails response.
type emailEntry struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Resolve picks the best email for the account, in strict priority order:
//
//	1. the entry marked both primary and verified
//	2. the first verified entry
//	3. the first entry, whatever it is, with its verified flag passed through
//
// Returns ok=false when no email could be determined.
func (r *EmailResolver) Resolve(ctx context.Context, accessToken string) (email string, verified bool, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", false, false
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, false
	}

	var entries []emailEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil || len(entries) == 0 {
		return "", false, false
	}

	for _, e := range entries {
		if e.Primary && e.Verified {
			return e.Email, true, true
		}
	}
	for _, e := range entries {
		if e.Verified {
			return e.Email, true, true
		}
	}
	return entries[0].Email, entries[0].Verified, true
}
