package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"debtbook/services"
)

type contextKey string

const sessionKey contextKey = "session"

// TokenParser проверяет токен владельца
type TokenParser interface {
	ParseToken(token string) (*services.Claims, error)
}

// Session данные проверенного токена
type Session struct {
	Subject   string
	ExpiresAt time.Time
}

// AuthMiddleware проверяет JWT токен и кладет сессию в контекст запроса
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			claims, err := parser.ParseToken(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			session := Session{Subject: claims.Subject}
			if claims.ExpiresAt != nil {
				session.ExpiresAt = claims.ExpiresAt.Time
			}
			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSession получает сессию из контекста
func GetSession(ctx context.Context) (Session, error) {
	session, ok := ctx.Value(sessionKey).(Session)
	if !ok {
		return Session{}, errors.New("session not found in context")
	}
	return session, nil
}
