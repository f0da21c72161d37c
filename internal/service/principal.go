package service

import (
	"context"
	"fmt"

	"github.com/findteam/find-backend/internal/model"
	"github.com/findteam/find-backend/internal/repository"
)

// PrincipalService rebuilds principals from actor IDs. It is the session
// deserialization path: the cookie holds only the actor ID, and this
// service joins the role-specific payload back on every request.
//
// It satisfies auth.PrincipalLoader.
type PrincipalService struct {
	actors repository.ActorRepository
}

// NewPrincipalService creates a PrincipalService.
func NewPrincipalService(actors repository.ActorRepository) *PrincipalService {
	return &PrincipalService{actors: actors}
}

// Load hydrates the principal for an actor ID. A missing actor propagates
// as apperror.ErrNotFound — callers must treat that as "session invalid,
// re-authenticate", never as an anonymous or fresh actor. Pure read, no
// side effects; two calls with no intervening writes return identical data.
func (s *PrincipalService) Load(ctx context.Context, actorID string) (*model.Principal, error) {
	if actorID == "" {
		return nil, fmt.Errorf("service/principal: actor ID must not be empty")
	}
	return s.actors.LoadPrincipal(ctx, actorID)
}
