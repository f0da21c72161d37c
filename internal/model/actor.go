// Package model defines the data structures used throughout the application.
package model

import "time"

// ActorKind identifies which kind of account an Actor represents.
//
// Every authenticated principal is backed by exactly one Actor row, and the
// kind decides which role-specific table (users or organizations) the actor
// points to. ADMIN actors have no role-specific row at all.
//
// The kind is fixed at provisioning time and never changes afterwards —
// an external identity that signed up as a USER stays a USER even if a
// later sign-in requests a different role.
type ActorKind string

const (
	KindUser  ActorKind = "USER"
	KindOrg   ActorKind = "ORG"
	KindAdmin ActorKind = "ADMIN"
)

// Valid reports whether k is one of the three known actor kinds.
func (k ActorKind) Valid() bool {
	switch k {
	case KindUser, KindOrg, KindAdmin:
		return true
	}
	return false
}

// Actor is the unifying identity row behind every account.
//
// INVARIANT: exactly one of UserID/OrgID is set for kind USER/ORG
// respectively, and both are empty for kind ADMIN. The sqlite schema
// enforces this with a CHECK constraint; application code never reads the
// two references directly — it goes through Principal, which exposes the
// role payload as a checked variant instead.
type Actor struct {
	ID        string    `json:"id"        db:"id"`
	Kind      ActorKind `json:"actorType" db:"actor_type"`
	UserID    string    `json:"-"         db:"user_id"` // set iff Kind == USER
	OrgID     string    `json:"-"         db:"org_id"`  // set iff Kind == ORG
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AccountIdentity is the durable link between one external OAuth identity
// and one Actor. The (Provider, ProviderUserID) pair is unique — a given
// external account resolves to exactly one actor forever. One actor may own
// several identities (e.g. both a Google and a GitHub login).
type AccountIdentity struct {
	ActorID        string    `json:"actorId"        db:"actor_id"`
	Provider       string    `json:"provider"       db:"provider"` // canonical uppercase: GOOGLE, GITHUB
	ProviderUserID string    `json:"providerUserId" db:"provider_user_id"`
	Email          string    `json:"email"          db:"email"` // as reported by the provider at link time
	Verified       bool      `json:"isVerified"     db:"is_verified"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
}
