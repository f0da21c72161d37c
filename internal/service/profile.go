package service

import (
	"context"
	"log/slog"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/model"
	"github.com/findteam/find-backend/internal/repository"
)

// ProfileService holds the business rules for onboarding and the profile
// resources (skills, security records, work experiences, privacy settings).
// Every operation takes the authenticated principal and enforces both the
// actor kind and row ownership before touching the repository.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, logger: logger}
}

// userID extracts the user payload ID, rejecting non-USER principals.
func (s *ProfileService) userID(p *model.Principal) (string, error) {
	user, err := p.User()
	if err != nil {
		return "", apperror.Forbidden("only individual accounts can use this endpoint")
	}
	return user.ID, nil
}

// OnboardUser completes the individual onboarding form: username (with a
// uniqueness check against other users), birthday, phone, GitHub handle.
func (s *ProfileService) OnboardUser(ctx context.Context, p *model.Principal, username, birthday, phoneNumber, githubHandle string) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	if username == "" {
		return apperror.ValidationFailed("username", "username is required")
	}

	taken, err := s.profiles.UsernameTakenByOther(ctx, username, userID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.Conflict("username", username)
	}

	if err := s.profiles.OnboardUser(ctx, userID, username, birthday, phoneNumber, githubHandle); err != nil {
		return err
	}

	s.logger.Info("user onboarded",
		slog.String("userID", userID),
		slog.String("username", username),
	)
	return nil
}

// OnboardOrg completes the organization onboarding form.
func (s *ProfileService) OnboardOrg(ctx context.Context, p *model.Principal, orgName, website string) error {
	org, err := p.Org()
	if err != nil {
		return apperror.Forbidden("only organization accounts can use this endpoint")
	}
	if orgName == "" {
		return apperror.ValidationFailed("orgName", "organization name is required")
	}
	return s.profiles.OnboardOrg(ctx, org.ID, orgName, website)
}

// SkillCatalog lists the public skill catalog grouped by category.
// No authentication required — the sign-up page renders it.
func (s *ProfileService) SkillCatalog(ctx context.Context) ([]model.SkillCategory, error) {
	return s.profiles.SkillCatalog(ctx)
}

func (s *ProfileService) ListSkills(ctx context.Context, p *model.Principal) ([]model.UserSkill, error) {
	userID, err := s.userID(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListUserSkills(ctx, userID)
}

// AddSkill links a catalog skill, or creates a custom one when customName
// and categoryID are given instead of a skillID.
func (s *ProfileService) AddSkill(ctx context.Context, p *model.Principal, skillID, proficiency, customName, categoryID string) (*model.UserSkill, error) {
	userID, err := s.userID(p)
	if err != nil {
		return nil, err
	}
	if proficiency == "" {
		return nil, apperror.ValidationFailed("proficiency", "proficiency is required")
	}
	if skillID == "" && (customName == "" || categoryID == "") {
		return nil, apperror.ValidationFailed("skillId", "a skill ID or a custom skill name with its category is required")
	}
	return s.profiles.AddUserSkill(ctx, userID, skillID, proficiency, customName, categoryID)
}

func (s *ProfileService) DeleteSkill(ctx context.Context, p *model.Principal, userSkillID string) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	return s.profiles.DeleteUserSkill(ctx, userID, userSkillID)
}

func (s *ProfileService) ListSecurityRecords(ctx context.Context, p *model.Principal) ([]model.SecurityRecord, error) {
	userID, err := s.userID(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListSecurityRecords(ctx, userID)
}

func (s *ProfileService) AddSecurityRecord(ctx context.Context, p *model.Principal, rec *model.SecurityRecord) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	if rec.Category == "" || rec.Title == "" || rec.Target == "" {
		return apperror.ValidationFailed("category", "category, title, and target are required")
	}
	rec.UserID = userID
	return s.profiles.AddSecurityRecord(ctx, rec)
}

func (s *ProfileService) UpdateSecurityRecord(ctx context.Context, p *model.Principal, rec *model.SecurityRecord) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	if rec.Category == "" || rec.Title == "" || rec.Target == "" {
		return apperror.ValidationFailed("category", "category, title, and target are required")
	}
	rec.UserID = userID
	return s.profiles.UpdateSecurityRecord(ctx, rec)
}

func (s *ProfileService) DeleteSecurityRecord(ctx context.Context, p *model.Principal, recordID string) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	return s.profiles.DeleteSecurityRecord(ctx, userID, recordID)
}

func (s *ProfileService) ListWorkExperiences(ctx context.Context, p *model.Principal) ([]model.WorkExperience, error) {
	userID, err := s.userID(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListWorkExperiences(ctx, userID)
}

func (s *ProfileService) AddWorkExperience(ctx context.Context, p *model.Principal, exp *model.WorkExperience) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	if exp.CompanyName == "" || exp.Role == "" || exp.StartDate == "" {
		return apperror.ValidationFailed("companyName", "company name, role, and start date are required")
	}
	exp.UserID = userID
	return s.profiles.AddWorkExperience(ctx, exp)
}

func (s *ProfileService) UpdateWorkExperience(ctx context.Context, p *model.Principal, exp *model.WorkExperience) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	if exp.CompanyName == "" || exp.Role == "" || exp.StartDate == "" {
		return apperror.ValidationFailed("companyName", "company name, role, and start date are required")
	}
	exp.UserID = userID
	return s.profiles.UpdateWorkExperience(ctx, exp)
}

func (s *ProfileService) DeleteWorkExperience(ctx context.Context, p *model.Principal, expID string) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	return s.profiles.DeleteWorkExperience(ctx, userID, expID)
}

func (s *ProfileService) PrivacySettings(ctx context.Context, p *model.Principal) (map[string]bool, error) {
	userID, err := s.userID(p)
	if err != nil {
		return nil, err
	}
	return s.profiles.PrivacySettings(ctx, userID)
}

func (s *ProfileService) SetPrivacySetting(ctx context.Context, p *model.Principal, settingName string, isPublic bool) error {
	userID, err := s.userID(p)
	if err != nil {
		return err
	}
	if settingName == "" {
		return apperror.ValidationFailed("settingName", "setting name is required")
	}
	return s.profiles.SetPrivacySetting(ctx, userID, settingName, isPublic)
}
