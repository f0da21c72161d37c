package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/model"
	"github.com/findteam/find-backend/internal/repository"
)

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

func (db *DB) OnboardUser(ctx context.Context, userID, username, birthday, phoneNumber, githubHandle string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, birthday = ?, phone_number = ?, github_handle = ?, updated_at = ?
		 WHERE id = ?`,
		username, birthday, phoneNumber, githubHandle, time.Now().UTC(), userID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("username", username)
		}
		return fmt.Errorf("sqlite: onboarding user %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

func (db *DB) OnboardOrg(ctx context.Context, orgID, orgName, website string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE organizations SET org_name = ?, website = ?, updated_at = ? WHERE id = ?`,
		orgName, website, time.Now().UTC(), orgID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: onboarding organization %s: %w", orgID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("organization", orgID)
	}
	return nil
}

func (db *DB) UsernameTakenByOther(ctx context.Context, username, userID string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ? AND id != ?`, username, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking username %q: %w", username, err)
	}
	return true, nil
}

// SkillCatalog lists the public (non-custom) skills grouped by category.
// Custom skills created by individual users stay out of the shared catalog.
func (db *DB) SkillCatalog(ctx context.Context) ([]model.SkillCategory, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name FROM skill_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing skill categories: %w", err)
	}
	defer rows.Close()

	var categories []model.SkillCategory
	byID := make(map[string]int)
	for rows.Next() {
		var c model.SkillCategory
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill category: %w", err)
		}
		c.Skills = []model.Skill{}
		byID[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skill categories: %w", err)
	}

	skillRows, err := db.conn.QueryContext(ctx,
		`SELECT id, category_id, name, is_custom FROM skills WHERE is_custom = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing skills: %w", err)
	}
	defer skillRows.Close()

	for skillRows.Next() {
		var s model.Skill
		if err := skillRows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.IsCustom); err != nil {
			return nil, fmt.Errorf("sqlite: scanning skill: %w", err)
		}
		if i, ok := byID[s.CategoryID]; ok {
			categories[i].Skills = append(categories[i].Skills, s)
		}
	}
	if err := skillRows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating skills: %w", err)
	}
	return categories, nil
}

func (db *DB) ListUserSkills(ctx context.Context, userID string) ([]model.UserSkill, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT us.id, us.user_id, us.skill_id, us.proficiency, s.name, sc.name
		 FROM user_skills us
		 JOIN skills s ON us.skill_id = s.id
		 JOIN skill_categories sc ON s.category_id = sc.id
		 WHERE us.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing skills for user %s: %w", userID, err)
	}
	defer rows.Close()

	skills := []model.UserSkill{}
	for rows.Next() {
		var us model.UserSkill
		if err := rows.Scan(&us.ID, &us.UserID, &us.SkillID, &us.Proficiency, &us.SkillName, &us.CategoryName); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user skill: %w", err)
		}
		skills = append(skills, us)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating user skills: %w", err)
	}
	return skills, nil
}

// AddUserSkill links a skill to the user. When customName/categoryID are
// given, the custom skill row and the link are created in one transaction
// so a failure can't leave an orphaned catalog entry.
func (db *DB) AddUserSkill(ctx context.Context, userID, skillID, proficiency, customName, categoryID string) (*model.UserSkill, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning skill transaction: %w", err)
	}
	defer tx.Rollback()

	if customName != "" && categoryID != "" {
		skillID = xid.New().String()
		_, err = tx.ExecContext(ctx,
			`INSERT INTO skills (id, category_id, name, is_custom) VALUES (?, ?, ?, 1)`,
			skillID, categoryID, customName,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, apperror.Conflict("skill", customName)
			}
			return nil, fmt.Errorf("sqlite: inserting custom skill %q: %w", customName, err)
		}
	}

	linkID := xid.New().String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO user_skills (id, user_id, skill_id, proficiency) VALUES (?, ?, ?, ?)`,
		linkID, userID, skillID, proficiency,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user skill", skillID)
		}
		return nil, fmt.Errorf("sqlite: linking skill %s to user %s: %w", skillID, userID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing skill transaction: %w", err)
	}

	return &model.UserSkill{ID: linkID, UserID: userID, SkillID: skillID, Proficiency: proficiency}, nil
}

func (db *DB) DeleteUserSkill(ctx context.Context, userID, userSkillID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_skills WHERE id = ? AND user_id = ?`, userSkillID, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user skill %s: %w", userSkillID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user skill", userSkillID)
	}
	return nil
}

func (db *DB) ListSecurityRecords(ctx context.Context, userID string) ([]model.SecurityRecord, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, category, title, target, description, url, created_at
		 FROM security_records WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing security records for user %s: %w", userID, err)
	}
	defer rows.Close()

	records := []model.SecurityRecord{}
	for rows.Next() {
		var rec model.SecurityRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Category, &rec.Title, &rec.Target, &rec.Description, &rec.URL, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning security record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating security records: %w", err)
	}
	return records, nil
}

func (db *DB) AddSecurityRecord(ctx context.Context, rec *model.SecurityRecord) error {
	rec.ID = xid.New().String()
	rec.CreatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO security_records (id, user_id, category, title, target, description, url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Category, rec.Title, rec.Target, rec.Description, rec.URL, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting security record for user %s: %w", rec.UserID, err)
	}
	return nil
}

func (db *DB) UpdateSecurityRecord(ctx context.Context, rec *model.SecurityRecord) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE security_records SET category = ?, title = ?, target = ?, description = ?, url = ?
		 WHERE id = ? AND user_id = ?`,
		rec.Category, rec.Title, rec.Target, rec.Description, rec.URL, rec.ID, rec.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating security record %s: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("security record", rec.ID)
	}
	return nil
}

func (db *DB) DeleteSecurityRecord(ctx context.Context, userID, recordID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM security_records WHERE id = ? AND user_id = ?`, recordID, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting security record %s: %w", recordID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("security record", recordID)
	}
	return nil
}

func (db *DB) ListWorkExperiences(ctx context.Context, userID string) ([]model.WorkExperience, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, company_name, role, start_date, end_date, description, created_at
		 FROM user_work_experiences WHERE user_id = ? ORDER BY start_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing work experiences for user %s: %w", userID, err)
	}
	defer rows.Close()

	experiences := []model.WorkExperience{}
	for rows.Next() {
		var exp model.WorkExperience
		if err := rows.Scan(&exp.ID, &exp.UserID, &exp.CompanyName, &exp.Role, &exp.StartDate, &exp.EndDate, &exp.Description, &exp.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning work experience: %w", err)
		}
		experiences = append(experiences, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating work experiences: %w", err)
	}
	return experiences, nil
}

func (db *DB) AddWorkExperience(ctx context.Context, exp *model.WorkExperience) error {
	exp.ID = xid.New().String()
	exp.CreatedAt = time.Now().UTC()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_work_experiences (id, user_id, company_name, role, start_date, end_date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.UserID, exp.CompanyName, exp.Role, exp.StartDate, exp.EndDate, exp.Description, exp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting work experience for user %s: %w", exp.UserID, err)
	}
	return nil
}

func (db *DB) UpdateWorkExperience(ctx context.Context, exp *model.WorkExperience) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE user_work_experiences SET company_name = ?, role = ?, start_date = ?, end_date = ?, description = ?
		 WHERE id = ? AND user_id = ?`,
		exp.CompanyName, exp.Role, exp.StartDate, exp.EndDate, exp.Description, exp.ID, exp.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating work experience %s: %w", exp.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("work experience", exp.ID)
	}
	return nil
}

func (db *DB) DeleteWorkExperience(ctx context.Context, userID, expID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM user_work_experiences WHERE id = ? AND user_id = ?`, expID, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting work experience %s: %w", expID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("work experience", expID)
	}
	return nil
}

func (db *DB) PrivacySettings(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT setting_name, is_public FROM user_privacy_settings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing privacy settings for user %s: %w", userID, err)
	}
	defer rows.Close()

	settings := make(map[string]bool)
	for rows.Next() {
		var name string
		var isPublic bool
		if err := rows.Scan(&name, &isPublic); err != nil {
			return nil, fmt.Errorf("sqlite: scanning privacy setting: %w", err)
		}
		settings[name] = isPublic
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating privacy settings: %w", err)
	}
	return settings, nil
}

func (db *DB) SetPrivacySetting(ctx context.Context, userID, settingName string, isPublic bool) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user_privacy_settings (user_id, setting_name, is_public)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id, setting_name) DO UPDATE SET is_public = excluded.is_public`,
		userID, settingName, isPublic,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting privacy %q for user %s: %w", settingName, userID, err)
	}
	return nil
}
