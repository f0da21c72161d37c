package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// emailServer serves a canned GitHub /user/emails response.
func emailServer(t *testing.T, status int, body string) *EmailResolver {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization header = %q, want bearer token", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewEmailResolverForTest(srv.URL)
}

func TestResolve_PrefersPrimaryVerified(t *testing.T) {
	r := emailServer(t, http.StatusOK, `[
		{"email":"old@example.com","primary":false,"verified":true},
		{"email":"main@example.com","primary":true,"verified":true}
	]`)

	email, verified, ok := r.Resolve(context.Background(), "test-token")
	if !ok {
		t.Fatal("Resolve() ok = false, want true")
	}
	if email != "main@example.com" || !verified {
		t.Errorf("Resolve() = (%q, %v), want (main@example.com, true)", email, verified)
	}
}

func TestResolve_FallsBackToAnyVerified(t *testing.T) {
	r := emailServer(t, http.StatusOK, `[
		{"email":"unconfirmed@example.com","primary":true,"verified":false},
		{"email":"confirmed@example.com","primary":false,"verified":true}
	]`)

	email, verified, ok := r.Resolve(context.Background(), "test-token")
	if !ok || email != "confirmed@example.com" || !verified {
		t.Errorf("Resolve() = (%q, %v, %v), want (confirmed@example.com, true, true)", email, verified, ok)
	}
}

func TestResolve_LastResortFirstEntry(t *testing.T) {
	r := emailServer(t, http.StatusOK, `[
		{"email":"first@example.com","primary":false,"verified":false},
		{"email":"second@example.com","primary":false,"verified":false}
	]`)

	email, verified, ok := r.Resolve(context.Background(), "test-token")
	if !ok || email != "first@example.com" {
		t.Errorf("Resolve() = (%q, _, %v), want first entry", email, ok)
	}
	if verified {
		t.Error("Resolve() verified = true for an unverified entry")
	}
}

func TestResolve_EmptyList(t *testing.T) {
	r := emailServer(t, http.StatusOK, `[]`)

	if _, _, ok := r.Resolve(context.Background(), "test-token"); ok {
		t.Error("Resolve() ok = true for an empty email list")
	}
}

func TestResolve_NonOKStatus(t *testing.T) {
	r := emailServer(t, http.StatusUnauthorized, `{"message":"Bad credentials"}`)

	if _, _, ok := r.Resolve(context.Background(), "test-token"); ok {
		t.Error("Resolve() ok = true for a 401 response")
	}
}

func TestResolve_MalformedBody(t *testing.T) {
	r := emailServer(t, http.StatusOK, `{not json`)

	if _, _, ok := r.Resolve(context.Background(), "test-token"); ok {
		t.Error("Resolve() ok = true for a malformed response")
	}
}

// A dead endpoint must read as "no email available", never as a sign-in
// failure.
func TestResolve_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewEmailResolverForTest(url)
	if _, _, ok := r.Resolve(context.Background(), "test-token"); ok {
		t.Error("Resolve() ok = true against a closed server")
	}
}
