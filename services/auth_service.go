package services

import (
	"context"
	"inbox-lab/auth"
	"inbox-lab/domain"
	"inbox-lab/errors"
)

type IAuthService interface {
	Login(ctx context.Context, userID domain.UserID, secret string) (Token, error)
	Logout(ctx context.Context, userID domain.UserID)
	Verify(token string) (domain.UserID, error)
}

type Token string

func (t Token) String() string {
	return string(t)
}

// AuthService binds the remote session of a user to a web token.
type AuthService struct {
	inbox  IInboxService
	tokens *auth.TokenIssuer
}

func NewAuthService(inbox IInboxService, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{inbox: inbox, tokens: tokens}
}

func (s *AuthService) Login(ctx context.Context, userID domain.UserID, secret string) (Token, error) {
	// 1. Authenticate against the remote platform (restoring a stored session if any)
	if err := s.inbox.Authenticate(ctx, userID, secret); err != nil {
		return "", err
	}

	// 2. Issue the web token
	token, err := s.tokens.GenerateToken(userID)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}

func (s *AuthService) Logout(ctx context.Context, userID domain.UserID) {
	s.inbox.Logout(ctx, userID)
}

func (s *AuthService) Verify(token string) (domain.UserID, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", errors.ErrInvalidToken
	}
	return domain.UserID(claims.UserID), nil
}
