// Package auth resolves the caller's identity from a signed session token.
// Sign-in itself happens elsewhere; this service only verifies tokens.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dhanavadh/aiform-backend/internal/errorz"
)

const (
	SessionCookie = "__session"
	contextKey    = "auth.email"
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify returns the email carried by a valid HS256 token.
func (v *Verifier) Verify(token string) (string, error) {
	if len(v.secret) == 0 {
		return "", fmt.Errorf("%w: no signing secret configured", errorz.ErrUnauthenticated)
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", errorz.ErrUnauthenticated, err)
	}
	if !tkn.Valid || claims.Email == "" {
		return "", fmt.Errorf("%w: token carries no email", errorz.ErrUnauthenticated)
	}
	return claims.Email, nil
}

// Issue signs a token for email. Used by tests and local tooling.
func (v *Verifier) Issue(email string, claims jwt.RegisteredClaims) (string, error) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Email: email, RegisteredClaims: claims})
	return tkn.SignedString(v.secret)
}

// Middleware attaches the caller's email when a valid token is present.
// Requests without one continue anonymously.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c)
		if token != "" {
			if email, err := v.Verify(token); err == nil {
				c.Set(contextKey, email)
			}
		}
		c.Next()
	}
}

// RequireUser rejects requests that the middleware did not identify.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Email(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errorz.ErrUnauthenticated.Error()})
			return
		}
		c.Next()
	}
}

func Email(c *gin.Context) (string, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}

func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if after, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	cookie, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie
}
