package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/resinflow/resinflow/internal/platform/httpx"
	"github.com/resinflow/resinflow/internal/shared"
)

// UserSource abstracts account lookup for the service.
type UserSource interface {
	FindByWorkingID(ctx context.Context, workingID string) (User, error)
}

// Tokens abstracts the bearer token store.
type Tokens interface {
	Issue(ctx context.Context, user shared.UserContext) (string, error)
	Resolve(ctx context.Context, token string) (shared.UserContext, bool, error)
	Revoke(ctx context.Context, token string) error
}

// Service wraps the authentication rules.
type Service struct {
	users  UserSource
	tokens Tokens
}

// NewService constructs a Service.
func NewService(users UserSource, tokens Tokens) *Service {
	return &Service{users: users, tokens: tokens}
}

// Login checks working id and password and issues a bearer token. Wrong
// credentials and deactivated accounts fail the same way.
func (s *Service) Login(ctx context.Context, workingID, password string) (Session, error) {
	workingID = strings.TrimSpace(workingID)
	if workingID == "" || password == "" {
		return Session{}, httpx.Validation("Working ID and password are required")
	}
	user, err := s.users.FindByWorkingID(ctx, workingID)
	if err != nil {
		return Session{}, httpx.Unauthorized("Invalid working ID or password")
	}
	if !user.IsActive {
		return Session{}, httpx.Unauthorized("Invalid working ID or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, httpx.Unauthorized("Invalid working ID or password")
	}
	token, err := s.tokens.Issue(ctx, shared.UserContext{
		ID:        user.ID,
		Name:      user.Name,
		Role:      user.Role,
		WorkingID: user.WorkingID,
	})
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user}, nil
}

// Logout revokes a bearer token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Identify resolves a bearer token to its user context.
func (s *Service) Identify(ctx context.Context, token string) (shared.UserContext, error) {
	user, ok, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return shared.UserContext{}, err
	}
	if !ok {
		return shared.UserContext{}, httpx.Unauthorized("Session expired, please log in again")
	}
	return user, nil
}
