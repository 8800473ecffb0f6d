// Package auth регистрация, вход и проверка токенов.
//
// Access и refresh токены подписываются HS256 и несут id серверной сессии.
// Выход отзывает сессию, после чего ни один из её токенов не принимается.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cellendar/internal/config"
	"cellendar/internal/logger"
	"cellendar/internal/models/user"
	repo "cellendar/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrEmailTaken         = errors.New("email уже зарегистрирован")
)

const TokenType = "Bearer"

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

type Provider interface {
	SignUp(ctx context.Context, email, password string) (*user.User, *user.Tokens, error)
	SignIn(ctx context.Context, email, password string) (*user.User, *user.Tokens, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (*user.Tokens, error)
	CurrentUser(ctx context.Context, accessToken string) (*user.User, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *user.User) error
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	CreateSession(ctx context.Context, s *user.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*user.Session, error)
	RevokeSession(ctx context.Context, id uuid.UUID, at time.Time) error
	// ConsumeSession отзывает сессию, только если она ещё действует.
	// Иначе repo.ErrNotFound: из двух параллельных вызовов успешен ровно один.
	ConsumeSession(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Claims struct {
	SessionID string `json:"sid"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

type JWTProvider struct {
	repo          UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	bcryptCost    int
	now           func() time.Time
}

type Option func(*JWTProvider)

func WithClock(now func() time.Time) Option {
	return func(p *JWTProvider) {
		p.now = now
	}
}

// WithBcryptCost в тестах удобно ставить bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(p *JWTProvider) {
		p.bcryptCost = cost
	}
}

func NewJWTProvider(r UserRepository, cfg config.AuthConfig, opts ...Option) *JWTProvider {
	p := &JWTProvider{
		repo:          r,
		accessSecret:  []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		bcryptCost:    bcrypt.DefaultCost,
		now:           time.Now,
	}
	if len(p.refreshSecret) == 0 {
		p.refreshSecret = p.accessSecret
	}
	if p.accessTTL <= 0 {
		p.accessTTL = time.Hour
	}
	if p.refreshTTL <= 0 {
		p.refreshTTL = 7 * 24 * time.Hour
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *JWTProvider) SignUp(ctx context.Context, email, password string) (*user.User, *user.Tokens, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	u := &user.User{
		ID:           uuid.New(),
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("создание пользователя: %w", err)
	}

	tokens, err := p.issue(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Auth: Пользователь зарегистрирован", zap.String("user_id", u.ID.String()))
	return u, tokens, nil
}

func (p *JWTProvider) SignIn(ctx context.Context, email, password string) (*user.User, *user.Tokens, error) {
	u, err := p.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := p.issue(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, tokens, nil
}

// SignOut принимает любой из токенов сессии. Повторный выход не ошибка.
func (p *JWTProvider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token, kindAccess)
	if err != nil {
		claims, err = p.parse(token, kindRefresh)
	}
	if err != nil {
		return err
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return ErrInvalidToken
	}
	if err := p.repo.RevokeSession(ctx, sessionID, p.now().UTC()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("отзыв сессии: %w", err)
	}
	return nil
}

// Refresh выдаёт новую пару токенов, старая сессия отзывается.
// Один refresh-токен можно обменять только один раз.
func (p *JWTProvider) Refresh(ctx context.Context, refreshToken string) (*user.Tokens, error) {
	claims, err := p.parse(refreshToken, kindRefresh)
	if err != nil {
		return nil, err
	}
	sess, err := p.activeSession(ctx, claims)
	if err != nil {
		return nil, err
	}

	if err := p.repo.ConsumeSession(ctx, sess.ID, p.now().UTC()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("отзыв сессии: %w", err)
	}
	return p.issue(ctx, sess.UserID)
}

func (p *JWTProvider) CurrentUser(ctx context.Context, accessToken string) (*user.User, error) {
	claims, err := p.parse(accessToken, kindAccess)
	if err != nil {
		return nil, err
	}
	sess, err := p.activeSession(ctx, claims)
	if err != nil {
		return nil, err
	}

	u, err := p.repo.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	return u, nil
}

func (p *JWTProvider) activeSession(ctx context.Context, claims *Claims) (*user.Session, error) {
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	sess, err := p.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("чтение сессии: %w", err)
	}
	if !sess.Active(p.now()) || sess.UserID.String() != claims.Subject {
		return nil, ErrInvalidToken
	}
	return sess, nil
}

func (p *JWTProvider) issue(ctx context.Context, userID uuid.UUID) (*user.Tokens, error) {
	now := p.now().UTC()
	sess := &user.Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: now.Add(p.refreshTTL),
		CreatedAt: now,
	}
	if err := p.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("создание сессии: %w", err)
	}

	accessExp := now.Add(p.accessTTL)
	access, err := p.sign(p.accessSecret, kindAccess, sess, now, accessExp)
	if err != nil {
		return nil, err
	}
	refresh, err := p.sign(p.refreshSecret, kindRefresh, sess, now, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &user.Tokens{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExp,
		TokenType:    TokenType,
	}, nil
}

func (p *JWTProvider) sign(secret []byte, kind string, sess *user.Session, now, exp time.Time) (string, error) {
	claims := &Claims{
		SessionID: sess.ID.String(),
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   sess.UserID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("подпись токена: %w", err)
	}
	return signed, nil
}

func (p *JWTProvider) parse(token, kind string) (*Claims, error) {
	secret := p.accessSecret
	if kind == kindRefresh {
		secret = p.refreshSecret
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	}
	if p.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(p.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, parserOpts...)
	if err != nil {
		logger.Debug("Auth: Токен отклонён", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
