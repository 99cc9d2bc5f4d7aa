package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/UkralStul/trip-comments-service/internal/domain"
	"github.com/UkralStul/trip-comments-service/internal/security"
	"github.com/go-chi/chi/v5/middleware"
)

type authorKey struct{}

// TokenValidator проверяет bearer-токен и возвращает клеймы пользователя.
type TokenValidator interface {
	ValidateToken(token string) (*security.UserClaims, error)
}

// AuthorFrom возвращает автора запроса или nil для анонима.
func AuthorFrom(ctx context.Context) *domain.Author {
	a, _ := ctx.Value(authorKey{}).(*domain.Author)
	return a
}

func withAuthor(ctx context.Context, a *domain.Author) context.Context {
	return context.WithValue(ctx, authorKey{}, a)
}

// Authenticate кладет автора в контекст. При required запрос без токена отклоняется.
// Невалидный токен отклоняется всегда.
func Authenticate(tokens TokenValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if required {
					writeError(w, r, errUnauthorized)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				writeError(w, r, errUnauthorized)
				return
			}
			claims, err := tokens.ValidateToken(strings.TrimSpace(token))
			if err != nil {
				slog.WarnContext(r.Context(), "rejected bearer token", "err", err)
				writeError(w, r, errUnauthorized)
				return
			}

			author := claims.Author()
			next.ServeHTTP(w, r.WithContext(withAuthor(r.Context(), &author)))
		})
	}
}

// RequestLogger пишет одну запись slog на запрос.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
