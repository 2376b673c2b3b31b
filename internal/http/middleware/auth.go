package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"apiscaffold/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	principalKey = "logged_in_user"
	roleKey      = "userRole"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for p valid for ttl.
func IssueToken(secret []byte, p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   p.UserID,
		Username: p.Username,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken validates an HS256 token and returns its principal.
func ParseToken(secret []byte, token string) (domain.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

// AuthOptional reads a bearer token when one is sent. Anonymous requests pass
// through; a bad token is rejected.
func AuthOptional(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, errors.New("authorization header must be a bearer token"))
			return
		}
		p, err := ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		c.Set(principalKey, &p)
		c.Set(roleKey, p.Role)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":      "unauthorized: " + err.Error(),
		"request_id": GetRequestID(c),
	})
}

// PrincipalFrom returns the authenticated caller, or nil.
func PrincipalFrom(c *gin.Context) *domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(*domain.Principal); ok {
			return p
		}
	}
	return nil
}
