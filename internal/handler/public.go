package handler

import (
	"log/slog"
	"net/http"

	"github.com/findteam/find-backend/internal/service"
)

// PublicHandler serves routes that need no session.
type PublicHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewPublicHandler(profiles *service.ProfileService, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{profiles: profiles, logger: logger}
}

// HandleSkillCatalog returns the skill catalog grouped by category.
// Custom skills created by individual users are excluded.
//
// HTTP: GET /api/skills
func (h *PublicHandler) HandleSkillCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.profiles.SkillCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}
