// Package service — business logic between the HTTP handlers and the
// repositories.
//
// ProvisionService is the heart of sign-in: it turns a verified external
// identity into a persistent actor exactly once, and resolves every later
// sign-in of that identity back to the same actor.
//
//	AuthHandler (HTTP) → ProvisionService → ActorRepository (DB)
//	                   ↘ EmailResolver (GitHub side-channel)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/findteam/find-backend/internal/apperror"
	"github.com/findteam/find-backend/internal/auth"
	"github.com/findteam/find-backend/internal/model"
	"github.com/findteam/find-backend/internal/repository"
)

// ErrUnknownRole reports a requested role outside USER/ORG/ADMIN. With
// correctly configured entry points this is unreachable — it means a
// programming error, not bad user input — so it is distinct from both the
// authorization failure and store failures.
var ErrUnknownRole = errors.New("provision: unknown requested role")

// EmailResolver is the provider email side-channel. ok=false means "no
// email available" — it is not an error and the caller falls back to a
// synthetic address.
type EmailResolver interface {
	Resolve(ctx context.Context, accessToken string) (email string, verified bool, ok bool)
}

// maxUsernameAttempts bounds the collision-retry loop. After this many
// random suffixes we append a full xid, which is globally unique, so the
// loop always terminates even under adversarial concurrent signups.
const maxUsernameAttempts = 5

// ProvisionService maps external identities to actors.
type ProvisionService struct {
	actors    repository.ActorRepository
	emails    EmailResolver
	allowlist *auth.AdminAllowlist
	logger    *slog.Logger
}

// NewProvisionService creates a ProvisionService with all dependencies.
func NewProvisionService(
	actors repository.ActorRepository,
	emails EmailResolver,
	allowlist *auth.AdminAllowlist,
	logger *slog.Logger,
) *ProvisionService {
	return &ProvisionService{
		actors:    actors,
		emails:    emails,
		allowlist: allowlist,
		logger:    logger,
	}
}

// ProvisionResult is what a completed sign-in produces. NewActor tells the
// handler whether to route the user into onboarding.
type ProvisionResult struct {
	Principal *model.Principal
	NewActor  bool
}

// Provision resolves an external identity to a principal, creating the
// actor on first sight.
//
// FLOW:
//  1. Resolve an email (profile → side-channel → synthetic fallback)
//  2. If the identity is already linked, return its principal unchanged —
//     no writes, and the requested role is ignored: the role established at
//     first sign-in is immutable
//  3. Otherwise create user/org/admin + actor + identity link in ONE
//     transaction, rolled back in full on any failure
//  4. If the identity insert loses a concurrent race (duplicate key), the
//     winner's principal is returned instead of an error
//
// Failure kinds callers can distinguish with errors.Is: apperror.ErrForbidden
// (admin allowlist rejection), ErrUnknownRole (misconfigured entry point),
// anything else (store failure, already rolled back).
func (s *ProvisionService) Provision(ctx context.Context, profile *auth.Profile, role model.ActorKind) (*ProvisionResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("provision: profile must not be nil")
	}

	email, verified := s.resolveEmail(ctx, profile)

	// Fast path: this identity has signed in before.
	if p, ok, err := s.existingPrincipal(ctx, profile.Provider, profile.ProviderUserID); err != nil {
		return nil, err
	} else if ok {
		return &ProvisionResult{Principal: p, NewActor: false}, nil
	}

	principal, err := s.createActor(ctx, profile, role, email, verified)
	if err != nil {
		// Duplicate identity key: a concurrent request provisioned this
		// exact identity between our lookup and our insert. Not an error —
		// re-resolve and sign in as the winner's actor.
		if errors.Is(err, apperror.ErrConflict) {
			if p, ok, lookupErr := s.existingPrincipal(ctx, profile.Provider, profile.ProviderUserID); lookupErr == nil && ok {
				s.logger.Info("identity race lost, adopted winning actor",
					slog.String("provider", profile.Provider),
					slog.String("providerUserID", profile.ProviderUserID),
					slog.String("actorID", p.ActorID()),
				)
				return &ProvisionResult{Principal: p, NewActor: false}, nil
			}
		}
		return nil, err
	}

	s.logger.Info("provisioned new actor",
		slog.String("actorID", principal.ActorID()),
		slog.String("kind", string(principal.Kind())),
		slog.String("provider", profile.Provider),
	)
	return &ProvisionResult{Principal: principal, NewActor: true}, nil
}

// resolveEmail applies the three-step email policy: the profile's own
// email, then the GitHub side-channel, then a deterministic noreply
// fallback that satisfies the unique-email constraint without pretending
// to be verified.
func (s *ProvisionService) resolveEmail(ctx context.Context, profile *auth.Profile) (string, bool) {
	if profile.Email != "" {
		return profile.Email, profile.EmailVerified
	}

	if profile.Provider == auth.ProviderGitHub && s.emails != nil {
		if email, verified, ok := s.emails.Resolve(ctx, profile.AccessToken); ok {
			return email, verified
		}
	}

	uname := profile.Username
	if uname == "" {
		uname = "gh_" + profile.ProviderUserID
	}
	return uname + "@users.noreply.github.com", false
}

func (s *ProvisionService) existingPrincipal(ctx context.Context, provider, providerUserID string) (*model.Principal, bool, error) {
	actorID, ok, err := s.actors.FindActorByIdentity(ctx, provider, providerUserID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	p, err := s.actors.LoadPrincipal(ctx, actorID)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// createActor runs the role-branched provisioning transaction. The deferred
// Rollback releases the connection on every exit path; after a successful
// Commit it is a no-op.
func (s *ProvisionService) createActor(ctx context.Context, profile *auth.Profile, role model.ActorKind, email string, verified bool) (*model.Principal, error) {
	tx, err := s.actors.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var actorID string

	switch role {
	case model.KindUser:
		username, err := s.pickUsername(ctx, tx, profile.DisplayName, email)
		if err != nil {
			return nil, err
		}

		user, err := tx.UpsertUser(ctx, email, username, profile.AvatarURL)
		if errors.Is(err, apperror.ErrConflict) {
			// Insert-time username race: someone took the name between our
			// check and the insert. One more regeneration with a globally
			// unique suffix settles it.
			user, err = tx.UpsertUser(ctx, email, username+"_"+xid.New().String(), profile.AvatarURL)
		}
		if err != nil {
			return nil, err
		}

		actorID, err = tx.InsertActor(ctx, model.KindUser, user.ID, "")
		if err != nil {
			return nil, err
		}

	case model.KindOrg:
		name := profile.DisplayName
		if name == "" {
			name = email
		}
		org, err := tx.UpsertOrg(ctx, email, name)
		if err != nil {
			return nil, err
		}

		actorID, err = tx.InsertActor(ctx, model.KindOrg, "", org.ID)
		if err != nil {
			return nil, err
		}

	case model.KindAdmin:
		// Allowlist failure must abort before any row exists, and must stay
		// distinguishable from store errors — it is a forbidden sign-in,
		// never a silent downgrade to USER.
		if !s.allowlist.Allows(email) {
			return nil, apperror.Forbidden(fmt.Sprintf("email %s is not permitted to sign in as admin", email))
		}
		actorID, err = tx.InsertActor(ctx, model.KindAdmin, "", "")
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	if err := tx.InsertIdentity(ctx, actorID, profile.Provider, profile.ProviderUserID, email, verified); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.actors.LoadPrincipal(ctx, actorID)
}

// pickUsername derives a username from the display name (or the email
// local-part) and resolves collisions with a bounded generate-and-retry.
func (s *ProvisionService) pickUsername(ctx context.Context, tx repository.ActorTx, displayName, email string) (string, error) {
	base := strings.TrimSpace(displayName)
	if base == "" {
		base = strings.SplitN(email, "@", 2)[0]
	}

	candidate := base
	for i := 0; i < maxUsernameAttempts; i++ {
		taken, err := tx.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "_" + shortSuffix()
	}

	// Every generated suffix collided (or was raced away). An xid cannot
	// collide, so this final candidate always terminates the loop.
	return base + "_" + xid.New().String(), nil
}

// shortSuffix returns 5 quasi-random characters for username de-duplication.
func shortSuffix() string {
	id := xid.New().String()
	return id[len(id)-5:]
}
