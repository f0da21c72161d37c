package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/auth"
	"github.com/findteam/find-backend/internal/service"
)

// OrgHandler serves organization-account routes. Everything here sits
// behind RequireAuth + RequireKind(ORG).
type OrgHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewOrgHandler(profiles *service.ProfileService, logger *slog.Logger) *OrgHandler {
	return &OrgHandler{profiles: profiles, logger: logger}
}

// HandleOnboard completes organization onboarding.
//
// HTTP: POST /api/org/onboard
func (h *OrgHandler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req struct {
		OrgName string `json:"orgName"`
		Website string `json:"website"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	if err := h.profiles.OnboardOrg(r.Context(), p, req.OrgName, req.Website); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "onboarding complete"})
}
