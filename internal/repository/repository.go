// Package repository defines the storage interfaces the services depend on.
// The sqlite subpackage is the only implementation; services never see a
// concrete store type, which is what lets the provisioning tests inject
// fakes that simulate races and failures no real database would produce on
// demand.
package repository

import (
	"context"

	"github.com/findteam/find-backend/internal/model"
)

// ActorRepository owns reads and writes for actors, users, organizations
// and account identities.
//
// The write protocol is transactional: Begin hands the caller an ActorTx,
// and every write inside it becomes visible atomically at Commit or not at
// all. Reads (FindActorByIdentity, LoadPrincipal) are lock-free point
// lookups outside any transaction.
type ActorRepository interface {
	// FindActorByIdentity resolves an external (provider, providerUserID)
	// pair to the actor it was linked to. ok is false when the identity has
	// never been seen.
	FindActorByIdentity(ctx context.Context, provider, providerUserID string) (actorID string, ok bool, err error)

	// LoadPrincipal hydrates the principal for an actor: the actor row plus
	// its role-specific payload. Returns apperror.ErrNotFound when the actor
	// does not exist.
	LoadPrincipal(ctx context.Context, actorID string) (*model.Principal, error)

	// Begin opens the provisioning write transaction.
	Begin(ctx context.Context) (ActorTx, error)
}

// ActorTx is one provisioning transaction. Rollback after Commit is a no-op,
// so callers can `defer tx.Rollback()` unconditionally and be certain the
// connection is released on every exit path.
//
// Unique-key violations (duplicate identity, duplicate username) are
// surfaced as errors matching apperror.ErrConflict, so the orchestrator can
// tell an expected race from a real store failure.
type ActorTx interface {
	// UsernameTaken reports whether a username is already in use.
	UsernameTaken(ctx context.Context, username string) (bool, error)

	// UpsertUser inserts a user keyed by email. On conflict it updates the
	// username and profile image only — the email and onboarding fields are
	// never touched. Returns the canonical row.
	UpsertUser(ctx context.Context, email, username, profileImage string) (*model.User, error)

	// UpsertOrg inserts an organization keyed by email. On conflict it
	// updates the org name only. Returns the canonical row.
	UpsertOrg(ctx context.Context, email, orgName string) (*model.Organization, error)

	// InsertActor creates the actor row. userID/orgID must match the kind:
	// exactly one set for USER/ORG, both empty for ADMIN.
	InsertActor(ctx context.Context, kind model.ActorKind, userID, orgID string) (actorID string, err error)

	// InsertIdentity links the actor to the external identity.
	InsertIdentity(ctx context.Context, actorID, provider, providerUserID, email string, verified bool) error

	Commit() error
	Rollback() error
}

// ProfileRepository covers the onboarding and profile resources owned by an
// authenticated actor: skills, work experiences, security records, privacy
// settings. All row access is scoped by the owning user ID.
type ProfileRepository interface {
	// OnboardUser fills in the onboarding fields of a user profile.
	OnboardUser(ctx context.Context, userID, username, birthday, phoneNumber, githubHandle string) error

	// OnboardOrg fills in the org name and website.
	OnboardOrg(ctx context.Context, orgID, orgName, website string) error

	// UsernameTakenByOther reports whether another user already holds the
	// username (the user keeping their current name is not a conflict).
	UsernameTakenByOther(ctx context.Context, username, userID string) (bool, error)

	// SkillCatalog lists the non-custom skills grouped by category.
	SkillCatalog(ctx context.Context) ([]model.SkillCategory, error)

	// ListUserSkills returns the user's skills joined with catalog names.
	ListUserSkills(ctx context.Context, userID string) ([]model.UserSkill, error)

	// AddUserSkill links a catalog skill; when customName/categoryID are
	// set, the skill row is created in the same transaction.
	AddUserSkill(ctx context.Context, userID, skillID, proficiency, customName, categoryID string) (*model.UserSkill, error)

	// DeleteUserSkill removes a skill link owned by the user.
	// Returns apperror.ErrNotFound if no such row belongs to them.
	DeleteUserSkill(ctx context.Context, userID, userSkillID string) error

	ListSecurityRecords(ctx context.Context, userID string) ([]model.SecurityRecord, error)
	AddSecurityRecord(ctx context.Context, rec *model.SecurityRecord) error
	UpdateSecurityRecord(ctx context.Context, rec *model.SecurityRecord) error
	DeleteSecurityRecord(ctx context.Context, userID, recordID string) error

	ListWorkExperiences(ctx context.Context, userID string) ([]model.WorkExperience, error)
	AddWorkExperience(ctx context.Context, exp *model.WorkExperience) error
	UpdateWorkExperience(ctx context.Context, exp *model.WorkExperience) error
	DeleteWorkExperience(ctx context.Context, userID, expID string) error

	// PrivacySettings returns the user's settings as a name → public map.
	PrivacySettings(ctx context.Context, userID string) (map[string]bool, error)
	// SetPrivacySetting creates or updates one setting.
	SetPrivacySetting(ctx context.Context, userID, settingName string, isPublic bool) error
}
