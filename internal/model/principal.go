package model

import (
	"encoding/json"
	"fmt"
)

// Principal is the hydrated, request-scoped representation of "who is making
// this request": the actor plus its role-specific payload.
//
// It is never persisted. The session cookie carries only the actor ID, and
// the principal is rebuilt from the database on every request.
//
// WHY ACCESSORS INSTEAD OF EXPORTED NULLABLE FIELDS?
// An Actor row has two nullable references and an "exactly one is set"
// invariant. Exposing that shape directly invites nil dereferences the
// compiler can't catch (the req.user.user.user_id problem). Principal keeps
// the payload private and hands it out through User()/Org(), which return an
// explicit error when the caller asked for the wrong variant.
type Principal struct {
	actorID string
	kind    ActorKind
	user    *User
	org     *Organization
}

// NewUserPrincipal builds a USER principal. The user payload must be non-nil.
func NewUserPrincipal(actorID string, u *User) *Principal {
	return &Principal{actorID: actorID, kind: KindUser, user: u}
}

// NewOrgPrincipal builds an ORG principal. The org payload must be non-nil.
func NewOrgPrincipal(actorID string, o *Organization) *Principal {
	return &Principal{actorID: actorID, kind: KindOrg, org: o}
}

// NewAdminPrincipal builds an ADMIN principal. Admins carry no payload.
func NewAdminPrincipal(actorID string) *Principal {
	return &Principal{actorID: actorID, kind: KindAdmin}
}

// ActorID returns the stable actor identifier — the only value that goes
// into the session token.
func (p *Principal) ActorID() string { return p.actorID }

// Kind returns the actor kind this principal was provisioned as.
func (p *Principal) Kind() ActorKind { return p.kind }

// User returns the individual-reporter payload.
// It fails if the principal is not of kind USER.
func (p *Principal) User() (*User, error) {
	if p.kind != KindUser || p.user == nil {
		return nil, fmt.Errorf("principal: actor %s is %s, not USER", p.actorID, p.kind)
	}
	return p.user, nil
}

// Org returns the organization payload.
// It fails if the principal is not of kind ORG.
func (p *Principal) Org() (*Organization, error) {
	if p.kind != KindOrg || p.org == nil {
		return nil, fmt.Errorf("principal: actor %s is %s, not ORG", p.actorID, p.kind)
	}
	return p.org, nil
}

// MarshalJSON renders the principal in the wire shape the frontend expects:
//
//	{"actorId": "...", "actorType": "USER", "user": {...}}
//
// The role payload key is present only for the matching kind.
func (p *Principal) MarshalJSON() ([]byte, error) {
	out := struct {
		ActorID   string        `json:"actorId"`
		ActorType ActorKind     `json:"actorType"`
		User      *User         `json:"user,omitempty"`
		Org       *Organization `json:"org,omitempty"`
	}{
		ActorID:   p.actorID,
		ActorType: p.kind,
		User:      p.user,
		Org:       p.org,
	}
	return json.Marshal(out)
}
