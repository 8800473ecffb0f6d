package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cellendar/internal/auth"
	"cellendar/internal/logger"
	"cellendar/internal/models/user"

	"go.uber.org/zap"
)

const userKey contextKey = "user"

// TokenVerifier проверяет access-токен и возвращает его владельца.
type TokenVerifier interface {
	CurrentUser(ctx context.Context, accessToken string) (*user.User, error)
}

// BearerToken токен из заголовка Authorization или пустая строка.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, auth.TokenType) {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth пропускает дальше только запросы с действующим токеном.
// Нет токена: 401, токен недействителен или сессия отозвана: 403.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				logger.Warn("HTTP: Запрос без токена",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.String("path", r.URL.Path))
				writeError(w, r, http.StatusUnauthorized, "AUTH_ERROR", "Требуется токен доступа")
				return
			}

			u, err := verifier.CurrentUser(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidToken) {
					logger.Warn("HTTP: Недействительный токен",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.String("path", r.URL.Path))
					writeError(w, r, http.StatusForbidden, "AUTH_ERROR", "Недействительный или просроченный токен")
					return
				}
				logger.Error("HTTP: Ошибка проверки токена", err, zap.String("request_id", GetRequestID(r.Context())))
				writeError(w, r, http.StatusInternalServerError, "UPSTREAM_ERROR", "Не удалось проверить токен")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(userKey).(*user.User)
	return u, ok && u != nil
}
