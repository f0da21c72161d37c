package auth

import "strings"

// AdminAllowlist is the configured set of emails permitted to claim the
// ADMIN role. Parsed once at startup from a comma-separated env value;
// membership checks are case-insensitive and an empty email never matches.
type AdminAllowlist struct {
	emails map[string]struct{}
}

// NewAdminAllowlist parses a comma-separated list of admin emails.
// Whitespace around entries is ignored, empty entries are dropped.
func NewAdminAllowlist(csv string) *AdminAllowlist {
	emails := make(map[string]struct{})
	for _, e := range strings.Split(csv, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails[e] = struct{}{}
		}
	}
	return &AdminAllowlist{emails: emails}
}

// Allows reports whether the email may provision an ADMIN actor.
func (a *AdminAllowlist) Allows(email string) bool {
	if email == "" {
		return false
	}
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}
