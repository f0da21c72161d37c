package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/model"
)

// newTestUser provisions a user and returns its user ID (not the actor ID).
func newTestUser(t *testing.T, db *DB, email, username string) string {
	t.Helper()
	actorID := provisionUser(t, db, email, username, "GITHUB", username)
	p, err := db.LoadPrincipal(context.Background(), actorID)
	if err != nil {
		t.Fatalf("LoadPrincipal: %v", err)
	}
	user, err := p.User()
	if err != nil {
		t.Fatalf("User(): %v", err)
	}
	return user.ID
}

// =========================================================================
// ONBOARDING
// =========================================================================

func TestOnboardUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")

	err := db.OnboardUser(ctx, userID, "alice_h", "1999-04-01", "010-1234-5678", "alice-gh")
	if err != nil {
		t.Fatalf("OnboardUser() error = %v", err)
	}

	user, err := db.getUser(ctx, userID)
	if err != nil {
		t.Fatalf("getUser: %v", err)
	}
	if user.Username != "alice_h" || user.Birthday != "1999-04-01" || user.GitHubHandle != "alice-gh" {
		t.Errorf("onboarding fields not persisted: %+v", user)
	}
}

func TestOnboardUser_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.OnboardUser(context.Background(), "no-such-user", "x", "", "", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("OnboardUser() error = %v, want ErrNotFound", err)
	}
}

func TestOnboardUser_UsernameConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	newTestUser(t, db, "alice@example.com", "alice")
	bobID := newTestUser(t, db, "bob@example.com", "bob")

	err := db.OnboardUser(ctx, bobID, "alice", "", "", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("OnboardUser() error = %v, want ErrConflict", err)
	}
}

func TestUsernameTakenByOther(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	aliceID := newTestUser(t, db, "alice@example.com", "alice")
	newTestUser(t, db, "bob@example.com", "bob")

	// Keeping your own name is not a conflict.
	taken, err := db.UsernameTakenByOther(ctx, "alice", aliceID)
	if err != nil {
		t.Fatalf("UsernameTakenByOther() error = %v", err)
	}
	if taken {
		t.Error("a user keeping their own username should not conflict")
	}

	taken, err = db.UsernameTakenByOther(ctx, "bob", aliceID)
	if err != nil {
		t.Fatalf("UsernameTakenByOther() error = %v", err)
	}
	if !taken {
		t.Error("another user's username should be reported as taken")
	}
}

func TestOnboardOrg(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, _ := db.Begin(ctx)
	org, err := tx.UpsertOrg(ctx, "contact@acme.example", "Acme")
	if err != nil {
		t.Fatalf("UpsertOrg: %v", err)
	}
	tx.Commit()

	if err := db.OnboardOrg(ctx, org.ID, "Acme Security", "https://acme.example"); err != nil {
		t.Fatalf("OnboardOrg() error = %v", err)
	}

	loaded, err := db.getOrg(ctx, org.ID)
	if err != nil {
		t.Fatalf("getOrg: %v", err)
	}
	if loaded.OrgName != "Acme Security" || loaded.Website != "https://acme.example" {
		t.Errorf("onboarding fields not persisted: %+v", loaded)
	}
}

// =========================================================================
// SKILLS
// =========================================================================

func TestSkillCatalog_Seeded(t *testing.T) {
	db := newTestDB(t)

	catalog, err := db.SkillCatalog(context.Background())
	if err != nil {
		t.Fatalf("SkillCatalog() error = %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("SkillCatalog() empty, want seeded categories")
	}
	for _, c := range catalog {
		if len(c.Skills) == 0 {
			t.Errorf("category %q has no skills", c.Name)
		}
	}
}

func TestAddAndListUserSkills(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")

	catalog, err := db.SkillCatalog(ctx)
	if err != nil || len(catalog) == 0 {
		t.Fatalf("SkillCatalog: %v", err)
	}
	seeded := catalog[0].Skills[0]

	added, err := db.AddUserSkill(ctx, userID, seeded.ID, "advanced", "", "")
	if err != nil {
		t.Fatalf("AddUserSkill() error = %v", err)
	}
	if added.SkillID != seeded.ID || added.Proficiency != "advanced" {
		t.Errorf("AddUserSkill() = %+v", added)
	}

	skills, err := db.ListUserSkills(ctx, userID)
	if err != nil {
		t.Fatalf("ListUserSkills() error = %v", err)
	}
	if len(skills) != 1 {
		t.Fatalf("ListUserSkills() returned %d skills, want 1", len(skills))
	}
	if skills[0].SkillName != seeded.Name || skills[0].CategoryName != catalog[0].Name {
		t.Errorf("joined names wrong: %+v", skills[0])
	}
}

// A custom skill is created alongside the link but stays out of the public
// catalog.
func TestAddUserSkill_Custom(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")
	catalog, _ := db.SkillCatalog(ctx)
	categoryID := catalog[0].ID
	before := len(catalog[0].Skills)

	added, err := db.AddUserSkill(ctx, userID, "", "intermediate", "Cache Poisoning", categoryID)
	if err != nil {
		t.Fatalf("AddUserSkill() error = %v", err)
	}
	if added.SkillID == "" {
		t.Error("custom skill got no skill ID")
	}

	after, _ := db.SkillCatalog(ctx)
	if len(after[0].Skills) != before {
		t.Error("custom skill leaked into the public catalog")
	}
}

func TestAddUserSkill_DuplicateLink(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")
	catalog, _ := db.SkillCatalog(ctx)
	seeded := catalog[0].Skills[0]

	if _, err := db.AddUserSkill(ctx, userID, seeded.ID, "advanced", "", ""); err != nil {
		t.Fatalf("AddUserSkill: %v", err)
	}
	_, err := db.AddUserSkill(ctx, userID, seeded.ID, "beginner", "", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("AddUserSkill() error = %v, want ErrConflict for a duplicate link", err)
	}
}

func TestDeleteUserSkill_OwnershipScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	aliceID := newTestUser(t, db, "alice@example.com", "alice")
	bobID := newTestUser(t, db, "bob@example.com", "bob")

	catalog, _ := db.SkillCatalog(ctx)
	added, err := db.AddUserSkill(ctx, aliceID, catalog[0].Skills[0].ID, "advanced", "", "")
	if err != nil {
		t.Fatalf("AddUserSkill: %v", err)
	}

	// Bob cannot delete Alice's skill.
	if err := db.DeleteUserSkill(ctx, bobID, added.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user delete error = %v, want ErrNotFound", err)
	}

	if err := db.DeleteUserSkill(ctx, aliceID, added.ID); err != nil {
		t.Fatalf("DeleteUserSkill() error = %v", err)
	}
	skills, _ := db.ListUserSkills(ctx, aliceID)
	if len(skills) != 0 {
		t.Error("skill still listed after delete")
	}
}

// =========================================================================
// SECURITY RECORDS
// =========================================================================

func TestSecurityRecords_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")

	rec := &model.SecurityRecord{
		UserID:   userID,
		Category: "CTF",
		Title:    "DEF CON Quals",
		Target:   "web challenges",
	}
	if err := db.AddSecurityRecord(ctx, rec); err != nil {
		t.Fatalf("AddSecurityRecord() error = %v", err)
	}
	if rec.ID == "" {
		t.Fatal("AddSecurityRecord() assigned no ID")
	}

	rec.Title = "DEF CON Finals"
	if err := db.UpdateSecurityRecord(ctx, rec); err != nil {
		t.Fatalf("UpdateSecurityRecord() error = %v", err)
	}

	records, err := db.ListSecurityRecords(ctx, userID)
	if err != nil {
		t.Fatalf("ListSecurityRecords() error = %v", err)
	}
	if len(records) != 1 || records[0].Title != "DEF CON Finals" {
		t.Errorf("ListSecurityRecords() = %+v", records)
	}

	if err := db.DeleteSecurityRecord(ctx, userID, rec.ID); err != nil {
		t.Fatalf("DeleteSecurityRecord() error = %v", err)
	}
	records, _ = db.ListSecurityRecords(ctx, userID)
	if len(records) != 0 {
		t.Error("record still listed after delete")
	}
}

func TestSecurityRecords_CrossUserUpdateRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	aliceID := newTestUser(t, db, "alice@example.com", "alice")
	bobID := newTestUser(t, db, "bob@example.com", "bob")

	rec := &model.SecurityRecord{UserID: aliceID, Category: "CTF", Title: "t", Target: "x"}
	if err := db.AddSecurityRecord(ctx, rec); err != nil {
		t.Fatalf("AddSecurityRecord: %v", err)
	}

	hijack := *rec
	hijack.UserID = bobID
	hijack.Title = "stolen"
	if err := db.UpdateSecurityRecord(ctx, &hijack); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user update error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// WORK EXPERIENCES
// =========================================================================

func TestWorkExperiences_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")

	exp := &model.WorkExperience{
		UserID:      userID,
		CompanyName: "Acme Security",
		Role:        "Pentester",
		StartDate:   "2023-01",
	}
	if err := db.AddWorkExperience(ctx, exp); err != nil {
		t.Fatalf("AddWorkExperience() error = %v", err)
	}

	exp.EndDate = "2025-06"
	if err := db.UpdateWorkExperience(ctx, exp); err != nil {
		t.Fatalf("UpdateWorkExperience() error = %v", err)
	}

	exps, err := db.ListWorkExperiences(ctx, userID)
	if err != nil {
		t.Fatalf("ListWorkExperiences() error = %v", err)
	}
	if len(exps) != 1 || exps[0].EndDate != "2025-06" {
		t.Errorf("ListWorkExperiences() = %+v", exps)
	}

	if err := db.DeleteWorkExperience(ctx, userID, exp.ID); err != nil {
		t.Fatalf("DeleteWorkExperience() error = %v", err)
	}
	if err := db.DeleteWorkExperience(ctx, userID, exp.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// PRIVACY SETTINGS
// =========================================================================

func TestPrivacySettings_UpsertAndRead(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	userID := newTestUser(t, db, "alice@example.com", "alice")

	settings, err := db.PrivacySettings(ctx, userID)
	if err != nil {
		t.Fatalf("PrivacySettings() error = %v", err)
	}
	if len(settings) != 0 {
		t.Errorf("fresh user has %d settings, want 0", len(settings))
	}

	if err := db.SetPrivacySetting(ctx, userID, "work_experiences", false); err != nil {
		t.Fatalf("SetPrivacySetting() error = %v", err)
	}
	// Flipping the same setting must update, not duplicate.
	if err := db.SetPrivacySetting(ctx, userID, "work_experiences", true); err != nil {
		t.Fatalf("SetPrivacySetting() error = %v", err)
	}

	settings, _ = db.PrivacySettings(ctx, userID)
	if len(settings) != 1 || !settings["work_experiences"] {
		t.Errorf("PrivacySettings() = %v, want map[work_experiences:true]", settings)
	}
}
