package model

import "time"

// SkillCategory groups skills in the public catalog (e.g. "Web", "Reversing").
type SkillCategory struct {
	ID     string  `json:"categoryId" db:"id"`
	Name   string  `json:"name"       db:"name"`
	Skills []Skill `json:"skills"` // populated by the catalog query, not a column
}

// Skill is a catalog entry. Custom skills are created by users alongside
// their user_skills row and are excluded from the public catalog.
type Skill struct {
	ID         string `json:"skillId"    db:"id"`
	CategoryID string `json:"categoryId" db:"category_id"`
	Name       string `json:"name"       db:"name"`
	IsCustom   bool   `json:"isCustom"   db:"is_custom"`
}

// UserSkill links a user to a catalog skill with a proficiency level.
// The joined skill/category names are included for list responses.
type UserSkill struct {
	ID           string `json:"userSkillId"  db:"id"`
	UserID       string `json:"-"            db:"user_id"`
	SkillID      string `json:"skillId"      db:"skill_id"`
	Proficiency  string `json:"proficiency"  db:"proficiency"`
	SkillName    string `json:"skillName"    db:"skill_name"`
	CategoryName string `json:"categoryName" db:"category_name"`
}

// SecurityRecord is a user-reported security activity (CTF result,
// disclosure, audit engagement and so on).
type SecurityRecord struct {
	ID          string    `json:"securityRecordId" db:"id"`
	UserID      string    `json:"-"                db:"user_id"`
	Category    string    `json:"category"         db:"category"`
	Title       string    `json:"title"            db:"title"`
	Target      string    `json:"target"           db:"target"`
	Description string    `json:"description"      db:"description"`
	URL         string    `json:"url"              db:"url"`
	CreatedAt   time.Time `json:"createdAt"        db:"created_at"`
}

// WorkExperience is one entry in a user's employment history.
// EndDate is empty for a current position.
type WorkExperience struct {
	ID          string    `json:"workExperienceId" db:"id"`
	UserID      string    `json:"-"                db:"user_id"`
	CompanyName string    `json:"companyName"      db:"company_name"`
	Role        string    `json:"role"             db:"role"`
	StartDate   string    `json:"startDate"        db:"start_date"`
	EndDate     string    `json:"endDate"          db:"end_date"`
	Description string    `json:"description"      db:"description"`
	CreatedAt   time.Time `json:"createdAt"        db:"created_at"`
}

// PrivacySetting controls the visibility of one profile section.
// Settings are stored as rows and exposed to the frontend as a
// name → is_public map.
type PrivacySetting struct {
	UserID      string `db:"user_id"`
	SettingName string `db:"setting_name"`
	IsPublic    bool   `db:"is_public"`
}
