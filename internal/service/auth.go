// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"inkpress/internal/models"
	"inkpress/internal/store"
)

// AuthService registers accounts, logs them in and resolves bearer tokens
// back to live accounts.
type AuthService struct {
	users  UserRepository
	tokens TokenIssuer
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"min=6"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string           `json:"token"`
	User  *models.Identity `json:"user"`
}

// dummyUser holds a real bcrypt hash that unknown-email logins are compared
// against, keeping their cost equal to a wrong password.
var dummyUser = sync.OnceValue(func() *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte("inkpress-no-such-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return &models.User{PasswordHash: string(hash)}
})

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a member account and issues its first token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, conflict(MsgEmailInUse, nil)
	}

	user, err := s.users.Create(ctx, in.Name, in.Email, in.Password, models.RoleMember)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict(MsgEmailInUse, err)
	}
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := checkStruct(in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.users.CheckPassword(dummyUser(), in.Password)
		return nil, unauthenticated(MsgInvalidCredentials)
	}
	if !s.users.CheckPassword(user, in.Password) {
		return nil, unauthenticated(MsgInvalidCredentials)
	}

	return s.issue(user)
}

// Me returns the caller's identity.
func (s *AuthService) Me(identity *models.Identity) (*models.Identity, error) {
	if identity == nil {
		return nil, unauthenticated(MsgNotAuthenticated)
	}
	return identity, nil
}

// Resolve verifies a bearer token and loads the account it names. A bad
// token or a vanished account is Unauthenticated; store failures are
// returned as-is.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, &Error{Kind: KindUnauthenticated, Message: MsgInvalidToken, Err: err}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	if user == nil {
		return nil, unauthenticated(MsgUserNotFound)
	}
	return user.Identity(), nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.Identity()}, nil
}
