// Package auth provides the gin middleware that establishes the requester's
// identity. The storefront stays ignorant of token mechanics: downstream
// code only sees an identity.Principal and a session id.
package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/identity"
)

const (
	// ContextPrincipal is the gin context key holding the identity.Principal.
	ContextPrincipal = "principal"
	// ContextSessionID is the gin context key holding the visitor session id.
	ContextSessionID = "session_id"
)

// Claims is the JWT payload issued by the identity service.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Middleware bundles the auth-related gin middleware.
type Middleware struct {
	secret     []byte
	cookieName string
	cookieTTL  int
}

// NewMiddleware creates auth middleware from configuration.
func NewMiddleware(cfg *config.Config) *Middleware {
	return &Middleware{
		secret:     []byte(cfg.Auth.JWTSecret),
		cookieName: cfg.Session.CookieName,
		cookieTTL:  int(cfg.Session.TTL.Seconds()),
	}
}

// Identify parses the bearer token when present and attaches a Principal to
// the context. Requests without a token proceed as anonymous; only a present
// but invalid token is rejected.
func (m *Middleware) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(ContextPrincipal, identity.Principal{})
			c.Next()
			return
		}

		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextPrincipal, identity.Principal{
			UserID:        claims.Subject,
			Roles:         claims.Roles,
			Authenticated: claims.Subject != "",
		})
		c.Next()
	}
}

// Session ensures every request carries a visitor session id cookie, used to
// key the anonymous cart identity.
func (m *Middleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(m.cookieName)
		if err != nil || sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(m.cookieName, sessionID, m.cookieTTL, "/", "", false, true)
		}
		c.Set(ContextSessionID, sessionID)
		c.Next()
	}
}

// RequireAuth rejects anonymous requests.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !PrincipalFrom(c).Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// RequireRole rejects requests whose principal lacks the given role.
func (m *Middleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := PrincipalFrom(c)
		if !p.Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !p.IsInRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient privileges"})
			return
		}
		c.Next()
	}
}

// PrincipalFrom extracts the principal set by Identify. Missing means anonymous.
func PrincipalFrom(c *gin.Context) identity.Principal {
	if v, ok := c.Get(ContextPrincipal); ok {
		if p, ok := v.(identity.Principal); ok {
			return p
		}
	}
	return identity.Principal{}
}

// SessionIDFrom extracts the session id set by Session.
func SessionIDFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextSessionID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
