package service

import (
	"context"
	"errors"
	"strings"

	"cellendar/internal/auth"
	"cellendar/internal/logger"
	"cellendar/internal/models/user"

	"go.uber.org/zap"
)

type AuthService struct {
	provider auth.Provider
}

func NewAuthService(provider auth.Provider) *AuthService {
	return &AuthService{provider: provider}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*user.User, *user.Tokens, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return nil, nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	u, tokens, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, fromAuth(err, "регистрация")
	}
	return u, tokens, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, *user.Tokens, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil, NewValidationError("email", "поле обязательно")
	}
	if password == "" {
		return nil, nil, NewValidationError("password", "поле обязательно")
	}

	u, tokens, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, fromAuth(err, "вход")
	}
	return u, tokens, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*user.Tokens, error) {
	if refreshToken == "" {
		return nil, NewValidationError("refresh_token", "поле обязательно")
	}
	tokens, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, fromAuth(err, "обновление токена")
	}
	return tokens, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.provider.SignOut(ctx, token); err != nil {
		return fromAuth(err, "выход")
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	u, err := s.provider.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, fromAuth(err, "проверка токена")
	}
	return u, nil
}

func fromAuth(err error, op string) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewAuthError("Неверный email или пароль")
	case errors.Is(err, auth.ErrInvalidToken):
		return NewBusinessError(CodeAuth, "Недействительный или просроченный токен", ToDetail("reason", "invalid_token"))
	case errors.Is(err, auth.ErrEmailTaken):
		return NewAlreadyExists("Пользователь", "email уже зарегистрирован")
	}
	logger.Error("Service: Ошибка аутентификации", err, zap.String("operation", op))
	return NewUpstreamError(op, err)
}
