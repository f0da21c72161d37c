package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/auth"
	"github.com/findteam/find-backend/internal/model"
	"github.com/findteam/find-backend/internal/service"
)

// UserHandler serves the authenticated user's profile surface: onboarding,
// skills, security records, work experiences and privacy settings. Every
// route sits behind RequireAuth + RequireKind(USER), so the principal in
// the context is always the USER variant.
type UserHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewUserHandler(profiles *service.ProfileService, logger *slog.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger}
}

func (h *UserHandler) principal(w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return nil, false
	}
	return p, true
}

// HandleOnboard completes user onboarding.
//
// HTTP: POST /api/user/onboard
func (h *UserHandler) HandleOnboard(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req struct {
		Username     string `json:"username"`
		Birthday     string `json:"birthday"`
		PhoneNumber  string `json:"phoneNumber"`
		GitHubHandle string `json:"githubHandle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	if err := h.profiles.OnboardUser(r.Context(), p, req.Username, req.Birthday, req.PhoneNumber, req.GitHubHandle); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "onboarding complete"})
}

// HandleListSkills returns the user's skills with joined catalog names.
//
// HTTP: GET /api/user/skills
func (h *UserHandler) HandleListSkills(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	skills, err := h.profiles.ListSkills(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, skills)
}

// HandleAddSkill attaches a catalog skill, or a new custom skill, to the user.
//
// HTTP: POST /api/user/skills
func (h *UserHandler) HandleAddSkill(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req struct {
		SkillID     string `json:"skillId"`
		Proficiency string `json:"proficiency"`
		CustomName  string `json:"customName"`
		CategoryID  string `json:"categoryId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	skill, err := h.profiles.AddSkill(r.Context(), p, req.SkillID, req.Proficiency, req.CustomName, req.CategoryID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, skill)
}

// HandleDeleteSkill removes one of the user's own skills.
//
// HTTP: DELETE /api/user/skills/{id}
func (h *UserHandler) HandleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.profiles.DeleteSkill(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "skill removed"})
}

// HandleListSecurityRecords lists the user's security activity entries.
//
// HTTP: GET /api/user/security-records
func (h *UserHandler) HandleListSecurityRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	records, err := h.profiles.ListSecurityRecords(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleAddSecurityRecord creates a security activity entry.
//
// HTTP: POST /api/user/security-records
func (h *UserHandler) HandleAddSecurityRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var rec model.SecurityRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	if err := h.profiles.AddSecurityRecord(r.Context(), p, &rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleUpdateSecurityRecord updates one of the user's own entries.
//
// HTTP: PUT /api/user/security-records/{id}
func (h *UserHandler) HandleUpdateSecurityRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var rec model.SecurityRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}
	rec.ID = chi.URLParam(r, "id")

	if err := h.profiles.UpdateSecurityRecord(r.Context(), p, &rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleDeleteSecurityRecord removes one of the user's own entries.
//
// HTTP: DELETE /api/user/security-records/{id}
func (h *UserHandler) HandleDeleteSecurityRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.profiles.DeleteSecurityRecord(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "record removed"})
}

// HandleListWorkExperiences lists the user's employment history.
//
// HTTP: GET /api/user/work-experiences
func (h *UserHandler) HandleListWorkExperiences(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	exps, err := h.profiles.ListWorkExperiences(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exps)
}

// HandleAddWorkExperience creates an employment history entry.
//
// HTTP: POST /api/user/work-experiences
func (h *UserHandler) HandleAddWorkExperience(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var exp model.WorkExperience
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	if err := h.profiles.AddWorkExperience(r.Context(), p, &exp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

// HandleUpdateWorkExperience updates one of the user's own entries.
//
// HTTP: PUT /api/user/work-experiences/{id}
func (h *UserHandler) HandleUpdateWorkExperience(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var exp model.WorkExperience
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}
	exp.ID = chi.URLParam(r, "id")

	if err := h.profiles.UpdateWorkExperience(r.Context(), p, &exp); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// HandleDeleteWorkExperience removes one of the user's own entries.
//
// HTTP: DELETE /api/user/work-experiences/{id}
func (h *UserHandler) HandleDeleteWorkExperience(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.profiles.DeleteWorkExperience(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "experience removed"})
}

// HandlePrivacySettings returns the user's privacy settings as a
// setting name → public map.
//
// HTTP: GET /api/user/privacy-settings
func (h *UserHandler) HandlePrivacySettings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	settings, err := h.profiles.PrivacySettings(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// HandleSetPrivacySetting toggles the visibility of one profile section.
//
// HTTP: PUT /api/user/privacy-settings
func (h *UserHandler) HandleSetPrivacySetting(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req struct {
		SettingName string `json:"settingName"`
		IsPublic    bool   `json:"isPublic"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON"))
		return
	}

	if err := h.profiles.SetPrivacySetting(r.Context(), p, req.SettingName, req.IsPublic); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "setting updated"})
}
