// Package middleware содержит HTTP middleware витрины: аутентификацию, сжатие, логирование, метрики.
package middleware

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/shopnest/internal/apperror"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthCookieName задаёт имя cookie с токеном доступа.
const AuthCookieName = "token"

// Principal описывает аутентифицированного пользователя запроса.
type Principal struct {
	ID   uuid.UUID
	Role string
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserLookup возвращает актуальную роль пользователя из хранилища.
// Для удалённого пользователя возвращается ошибка apperror с категорией NotFound.
type UserLookup func(ctx context.Context, id uuid.UUID) (role string, err error)

// AuthMiddleware выпускает и проверяет JWT-токены. Токен берётся из cookie или заголовка Authorization.
type AuthMiddleware struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
	lookup    UserLookup
}

// NewAuthMiddleware создаёт AuthMiddleware с указанным секретом и сроком жизни токена.
// Пустой секрет заменяется случайным: токены не переживут перезапуск.
func NewAuthMiddleware(secret string, ttl time.Duration) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	if ttl <= 0 {
		ttl = 120 * time.Hour
	}

	return &AuthMiddleware{
		secretKey: key,
		ttl:       ttl,
		now:       time.Now,
	}
}

// WithUserLookup включает загрузку пользователя на каждый запрос: роль берётся из хранилища,
// а токен удалённого пользователя отклоняется. Без lookup роль берётся из токена.
func (a *AuthMiddleware) WithUserLookup(lookup UserLookup) *AuthMiddleware {
	a.lookup = lookup
	return a
}

// IssueToken подписывает токен для пользователя.
func (a *AuthMiddleware) IssueToken(userID uuid.UUID, role string) (string, error) {
	now := a.now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена.
func (a *AuthMiddleware) ParseToken(raw string) (Principal, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secretKey, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return Principal{}, fmt.Errorf("parse token: %w", err)
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Principal{}, fmt.Errorf("parse subject: %w", err)
	}

	return Principal{ID: id, Role: c.Role}, nil
}

// Middleware проверяет токен и добавляет Principal в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := tokenFromRequest(r)
		if err != nil {
			apperror.Write(w, apperror.Unauthorized("Please login to access this resource"))
			return
		}

		p, err := a.ParseToken(raw)
		if err != nil {
			apperror.Write(w, apperror.Unauthorized("Json Web Token is invalid, try again"))
			return
		}

		if a.lookup != nil {
			role, err := a.lookup(r.Context(), p.ID)
			if err != nil {
				if apperror.Is(err, apperror.KindNotFound) {
					apperror.Write(w, apperror.Unauthorized("Please login to access this resource"))
					return
				}
				apperror.Write(w, err)
				return
			}
			p.Role = role
		}

		ctx := context.WithValue(r.Context(), principalKey, p)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает только пользователей с одной из ролей. Ставится после Middleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				apperror.Write(w, apperror.Unauthorized("Please login to access this resource"))
				return
			}

			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			apperror.Write(w, apperror.Forbidden(fmt.Sprintf("Role: %s is not allowed to access this resource", p.Role)))
		})
	}
}

// SetAuthCookie устанавливает cookie с токеном.
func (a *AuthMiddleware) SetAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  a.now().Add(a.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie удаляет cookie с токеном.
func (a *AuthMiddleware) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

var errNoToken = errors.New("no token")

func tokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if raw := strings.TrimSpace(header[len("Bearer "):]); raw != "" {
			return raw, nil
		}
	}

	return "", errNoToken
}

// PrincipalFromContext извлекает пользователя запроса из контекста.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithPrincipal кладёт пользователя в контекст.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}
