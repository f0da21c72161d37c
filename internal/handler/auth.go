package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/auth"
	"github.com/findteam/find-backend/internal/model"
	"github.com/findteam/find-backend/internal/service"
)

// AuthHandler manages the OAuth sign-in flow and session lifecycle.
//
// ROUTES:
//
//	GET  /auth/{provider}/{role}     → redirect to the provider, role riding in the state
//	GET  /auth/{provider}/callback   → verify state, exchange code, provision, set cookie
//	POST /auth/logout                → clear the session cookie
//	GET  /api/me                     → the authenticated principal (behind RequireAuth)
type AuthHandler struct {
	providers map[string]auth.Provider // keyed by URL segment: "google", "github"
	tokens    *auth.TokenService
	states    *auth.StateService
	provision *service.ProvisionService
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. The provider map keys must match
// the {provider} URL segments registered in the router.
func NewAuthHandler(
	providers map[string]auth.Provider,
	tokens *auth.TokenService,
	states *auth.StateService,
	provision *service.ProvisionService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		providers: providers,
		tokens:    tokens,
		states:    states,
		provision: provision,
		logger:    logger,
	}
}

// roleFromSegment maps the sign-in entry segment to an actor kind.
// "login" is the role-less entry and defaults to USER.
func roleFromSegment(seg string) (model.ActorKind, bool) {
	switch seg {
	case "user", "login":
		return model.KindUser, true
	case "org":
		return model.KindOrg, true
	case "admin":
		return model.KindAdmin, true
	}
	return "", false
}

// HandleLogin starts the OAuth flow for a given provider and requested role.
//
// HTTP: GET /auth/{provider}/{role}
//
// The requested role travels inside the signed state token, not in
// server-side session state — two concurrent sign-ins from the same
// browser (say, a user tab and an org tab) cannot clobber each other's
// role. The state also serves as the CSRF check: it is signed, carries a
// random ID, and expires in ten minutes.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	role, ok := roleFromSegment(chi.URLParam(r, "role"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	state, err := h.states.Issue(role)
	if err != nil {
		h.logger.Error("issuing state token", slog.String("error", err.Error()))
		http.Error(w, "sign-in unavailable", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Verify the state token (CSRF + recover the requested role)
//  2. Exchange the code for a normalized profile
//  3. Provision: resolve or create the actor
//  4. Issue the session cookie (actor ID JWT) and redirect — new users and
//     orgs land on their onboarding page, everyone else on the profile
//
// FAILURE ROUTING: a denied consent screen redirects home; a forbidden
// admin claim is a hard 403 (it must not look like a transient error);
// anything else redirects to the home page with an error flag.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[chi.URLParam(r, "provider")]
	if !ok {
		http.NotFound(w, r)
		return
	}

	// The user denied the consent screen. Not an error on our side.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: provider reported denial", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	role, err := h.states.Verify(r.URL.Query().Get("state"))
	if err != nil {
		h.logger.Warn("auth callback: invalid state", slog.String("error", err.Error()))
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: code exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/?auth=error", http.StatusSeeOther)
		return
	}

	result, err := h.provision.Provision(r.Context(), profile, role)
	if err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			h.logger.Warn("auth callback: admin sign-in rejected",
				slog.String("provider", profile.Provider),
				slog.String("providerUserID", profile.ProviderUserID),
			)
			writeError(w, err)
			return
		}
		h.logger.Error("auth callback: provisioning failed",
			slog.String("provider", profile.Provider),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, "/?auth=error", http.StatusSeeOther)
		return
	}

	token, err := h.tokens.Generate(result.Principal.ActorID())
	if err != nil {
		h.logger.Error("auth callback: token generation failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/?auth=error", http.StatusSeeOther)
		return
	}

	// HttpOnly keeps the token away from scripts; SameSite=Lax sends it on
	// top-level navigations but not cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("actor signed in",
		slog.String("actorID", result.Principal.ActorID()),
		slog.String("kind", string(result.Principal.Kind())),
		slog.Bool("newActor", result.NewActor),
	)

	// First-time users and orgs go straight into onboarding.
	if result.NewActor {
		switch result.Principal.Kind() {
		case model.KindUser:
			http.Redirect(w, r, "/onboarding.html", http.StatusSeeOther)
			return
		case model.KindOrg:
			http.Redirect(w, r, "/onboarding_org.html", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, "/profile.html", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// Stateless sessions mean logout is purely client-side: the token stays
// technically valid until expiry, but without the cookie it is never sent.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated principal.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, principal)
}
