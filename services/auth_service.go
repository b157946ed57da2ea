package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
)

type IAuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (Token, domain.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (Token, domain.User, error)
	Me(ctx context.Context, identity string) (domain.User, error)
}

type Token string

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenService
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register validates, hashes and persists a new account, then issues its
// first session token. Validation runs before the expensive hash.
func (s *AuthService) Register(_ context.Context, req auth.RegisterRequest) (Token, domain.User, error) {
	req = req.Normalize()
	if err := auth.ValidateRegister(req); err != nil {
		return "", domain.User{}, err
	}

	// Hashing happens here so the repository never sees a plain password.
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.users.Create(req.Username, req.Email, hash)
	if err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user.Public(), nil
}

// Login checks credentials and issues a token. Every failure collapses into
// ErrInvalidCredentials to prevent account enumeration.
func (s *AuthService) Login(_ context.Context, req auth.LoginRequest) (Token, domain.User, error) {
	req = req.Normalize()
	if err := auth.ValidateLogin(req); err != nil {
		return "", domain.User{}, err
	}

	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	return Token(token), user.Public(), nil
}

// Me resolves the authenticated identity back to its account. A token whose
// subject no longer exists counts as an authentication failure.
func (s *AuthService) Me(_ context.Context, identity string) (domain.User, error) {
	user, err := s.users.GetByID(identity)
	if err != nil {
		if stderrors.Is(err, errors.ErrNotFound) {
			return domain.User{}, errors.ErrAuthentication
		}
		return domain.User{}, err
	}
	return user.Public(), nil
}
