package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey - ключ gin.Context с id пользователя из токена
const UserIDKey = "user_id"

var ErrInvalidToken = errors.New("invalid token")

// TokenClaims - claims токенов тестового бэкенда
type TokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken подписывает HS256 токен для пользователя
func IssueToken(secret []byte, userID, role string, now time.Time, ttl time.Duration) (string, error) {
	claims := TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken проверяет подпись и срок действия
func ParseToken(secret []byte, raw string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// JWTAuth - обязательная аутентификация по Authorization: Bearer <jwt>
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearer(c)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is missing"})
			c.Abort()
			return
		}
		claims, err := ParseToken(secret, raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is invalid or expired"})
			c.Abort()
			return
		}
		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

// OptionalJWTAuth - токен проверяется, если передан; без токена запрос проходит анонимно
func OptionalJWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearer(c); raw != "" {
			if claims, err := ParseToken(secret, raw); err == nil {
				c.Set(UserIDKey, claims.Subject)
			}
		}
		c.Next()
	}
}
