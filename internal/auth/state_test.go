package auth

import (
	"testing"

	"github.com/findteam/find-backend/internal/model"
)

func newTestStateService(t *testing.T) *StateService {
	t.Helper()
	ss, err := NewStateService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewStateService: %v", err)
	}
	return ss
}

func TestState_RoundTripAllRoles(t *testing.T) {
	ss := newTestStateService(t)

	for _, role := range []model.ActorKind{model.KindUser, model.KindOrg, model.KindAdmin} {
		token, err := ss.Issue(role)
		if err != nil {
			t.Fatalf("Issue(%s) error = %v", role, err)
		}

		got, err := ss.Verify(token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if got != role {
			t.Errorf("Verify() role = %s, want %s", got, role)
		}
	}
}

func TestState_IssueRejectsUnknownRole(t *testing.T) {
	ss := newTestStateService(t)

	if _, err := ss.Issue(model.ActorKind("SUPERUSER")); err == nil {
		t.Fatal("Issue() should reject an unknown role")
	}
}

// A session token and a state token are both HS256 JWTs signed with the
// same secret. The audience claim is what keeps one from standing in for
// the other.
func TestState_RejectsSessionToken(t *testing.T) {
	secret := "test-secret-at-least-16-chars!!"
	ss, _ := NewStateService(secret)
	ts, _ := NewTokenService(secret)

	sessionToken, err := ts.Generate("actor-abc")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := ss.Verify(sessionToken); err == nil {
		t.Fatal("Verify() should reject a session token used as state")
	}
}

func TestState_UniquePerIssue(t *testing.T) {
	ss := newTestStateService(t)

	a, _ := ss.Issue(model.KindUser)
	b, _ := ss.Issue(model.KindUser)
	if a == b {
		t.Error("Issue() returned identical state tokens for two sign-ins")
	}
}

func TestState_RejectsTamperedAndGarbage(t *testing.T) {
	ss := newTestStateService(t)

	token, _ := ss.Issue(model.KindOrg)
	tampered := token[:len(token)-4] + "XXXX"

	for _, tok := range []string{"", "garbage", tampered} {
		if _, err := ss.Verify(tok); err == nil {
			t.Errorf("Verify(%q) should fail", tok)
		}
	}
}
