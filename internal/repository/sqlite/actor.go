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

// compile-time check that *DB implements repository.ActorRepository
var _ repository.ActorRepository = (*DB)(nil)

// FindActorByIdentity is the read half of the provisioning race: a plain
// point lookup with no lock. Two concurrent first-time sign-ins can both see
// "not found" here — the unique key on account_identities settles it later.
func (db *DB) FindActorByIdentity(ctx context.Context, provider, providerUserID string) (string, bool, error) {
	var actorID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT actor_id FROM account_identities WHERE provider = ? AND provider_user_id = ?`,
		provider, providerUserID,
	).Scan(&actorID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("sqlite: looking up identity %s/%s: %w", provider, providerUserID, err)
	}
	return actorID, true, nil
}

// LoadPrincipal reads the actor row and joins the role-specific payload.
// ADMIN actors carry no payload. A missing actor is apperror.ErrNotFound —
// the session middleware turns that into 401, never into a fresh sign-up.
func (db *DB) LoadPrincipal(ctx context.Context, actorID string) (*model.Principal, error) {
	var (
		kind   string
		userID sql.NullString
		orgID  sql.NullString
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT actor_type, user_id, org_id FROM actors WHERE id = ?`, actorID,
	).Scan(&kind, &userID, &orgID)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("actor", actorID)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading actor %s: %w", actorID, err)
	}

	switch model.ActorKind(kind) {
	case model.KindUser:
		user, err := db.getUser(ctx, userID.String)
		if err != nil {
			return nil, err
		}
		return model.NewUserPrincipal(actorID, user), nil
	case model.KindOrg:
		org, err := db.getOrg(ctx, orgID.String)
		if err != nil {
			return nil, err
		}
		return model.NewOrgPrincipal(actorID, org), nil
	case model.KindAdmin:
		return model.NewAdminPrincipal(actorID), nil
	default:
		return nil, fmt.Errorf("sqlite: actor %s has unknown type %q", actorID, kind)
	}
}

func (db *DB) getUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, profile_image, birthday, phone_number, github_handle, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Username, &u.ProfileImage, &u.Birthday, &u.PhoneNumber, &u.GitHubHandle, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return &u, nil
}

func (db *DB) getOrg(ctx context.Context, id string) (*model.Organization, error) {
	var o model.Organization
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, org_name, website, created_at, updated_at
		 FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Email, &o.OrgName, &o.Website, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperror.NotFound("organization", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting organization %s: %w", id, err)
	}
	return &o, nil
}

// Begin opens the provisioning write transaction.
func (db *DB) Begin(ctx context.Context) (repository.ActorTx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	return &actorTx{tx: tx}, nil
}

// actorTx implements repository.ActorTx on a sql.Tx.
type actorTx struct {
	tx *sql.Tx
}

var _ repository.ActorTx = (*actorTx)(nil)

func (t *actorTx) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE username = ?`, username,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking username %q: %w", username, err)
	}
	return true, nil
}

// UpsertUser inserts a user keyed by email. When the email already exists
// the conflict clause refreshes the username and profile image only; email
// and onboarding fields are untouched. A violation of the username unique
// key (not the email key) surfaces as apperror.ErrConflict so the
// orchestrator can regenerate and retry.
func (t *actorTx) UpsertUser(ctx context.Context, email, username, profileImage string) (*model.User, error) {
	now := time.Now().UTC()
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO users (id, email, username, profile_image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			username      = excluded.username,
			profile_image = excluded.profile_image,
			updated_at    = excluded.updated_at`,
		xid.New().String(), email, username, profileImage, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("username", username)
		}
		return nil, fmt.Errorf("sqlite: upserting user %s: %w", email, err)
	}

	// Read the canonical row back: on the conflict path the generated ID was
	// discarded and the existing row's ID is the one that counts.
	var u model.User
	err = t.tx.QueryRowContext(ctx,
		`SELECT id, email, username, profile_image, birthday, phone_number, github_handle, created_at, updated_at
		 FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.Username, &u.ProfileImage, &u.Birthday, &u.PhoneNumber, &u.GitHubHandle, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back user %s: %w", email, err)
	}
	return &u, nil
}

// UpsertOrg mirrors UpsertUser for organizations: email is the key, the
// name may be refreshed, the website is onboarding-owned and never touched
// here.
func (t *actorTx) UpsertOrg(ctx context.Context, email, orgName string) (*model.Organization, error) {
	now := time.Now().UTC()
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO organizations (id, email, org_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			org_name   = excluded.org_name,
			updated_at = excluded.updated_at`,
		xid.New().String(), email, orgName, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: upserting organization %s: %w", email, err)
	}

	var o model.Organization
	err = t.tx.QueryRowContext(ctx,
		`SELECT id, email, org_name, website, created_at, updated_at
		 FROM organizations WHERE email = ?`, email,
	).Scan(&o.ID, &o.Email, &o.OrgName, &o.Website, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading back organization %s: %w", email, err)
	}
	return &o, nil
}

func (t *actorTx) InsertActor(ctx context.Context, kind model.ActorKind, userID, orgID string) (string, error) {
	actorID := xid.New().String()

	// NULLs, not empty strings — the schema CHECK depends on it.
	var userRef, orgRef any
	if userID != "" {
		userRef = userID
	}
	if orgID != "" {
		orgRef = orgID
	}

	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO actors (id, actor_type, user_id, org_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		actorID, string(kind), userRef, orgRef, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite: inserting actor (kind=%s): %w", kind, err)
	}
	return actorID, nil
}

// InsertIdentity links the actor to the external identity. The loser of a
// concurrent first-time sign-in hits the unique key here and gets
// apperror.ErrConflict, which the orchestrator resolves by re-running the
// lookup path.
func (t *actorTx) InsertIdentity(ctx context.Context, actorID, provider, providerUserID, email string, verified bool) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO account_identities (actor_id, provider, provider_user_id, email, is_verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		actorID, provider, providerUserID, email, verified, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("identity", provider+"/"+providerUserID)
		}
		return fmt.Errorf("sqlite: inserting identity %s/%s: %w", provider, providerUserID, err)
	}
	return nil
}

func (t *actorTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing provisioning transaction: %w", err)
	}
	return nil
}

// Rollback after Commit returns sql.ErrTxDone, which we swallow so callers
// can defer it unconditionally.
func (t *actorTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("sqlite: rolling back provisioning transaction: %w", err)
	}
	return nil
}
