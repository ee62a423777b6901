// Package auth validates dashboard JWTs and derives the caller's workspace
// write permission for the compliance gate.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/config"
)

const (
	userIDKey   = "user_id"
	canWriteKey = "can_write"
)

// Roles whose members may send outbound messages.
var writeRoles = map[string]bool{
	"owner": true,
	"admin": true,
	"agent": true,
}

// Validator validates JWTs against the workspace JWKS.
type Validator struct {
	cfg    *config.Config
	log    zerolog.Logger
	jwks   *keyfunc.JWKS
	parser *jwt.Parser
}

// NewValidator fetches the JWKS when auth is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := &Validator{
		cfg: cfg,
		log: log.With().Str("component", "auth").Logger(),
	}
	if !cfg.AuthEnabled {
		return v, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: 5 * time.Minute,
		RefreshErrorHandler: func(err error) {
			log.Warn().Err(err).Msg("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, err
	}

	v.jwks = jwks
	v.parser = jwt.NewParser(
		jwt.WithIssuer(cfg.AuthIssuer),
		jwt.WithAudience(cfg.AuthAudience),
		jwt.WithLeeway(time.Minute),
	)
	return v, nil
}

// Middleware enforces bearer auth when enabled and records the caller's
// write permission. When disabled it applies the configured default.
func (v *Validator) Middleware() gin.HandlerFunc {
	if v == nil || !v.cfg.AuthEnabled {
		canWrite := v == nil || v.cfg.DefaultCanWrite
		return func(c *gin.Context) {
			c.Set(canWriteKey, canWrite)
			c.Next()
		}
	}

	return func(c *gin.Context) {
		tokenString := bearerToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		token, err := v.parser.Parse(tokenString, v.jwks.Keyfunc)
		if err != nil || !token.Valid {
			v.log.Debug().Err(err).Msg("jwt validation failed")
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token claims")
			return
		}

		if sub, _ := claims["sub"].(string); sub != "" {
			c.Set(userIDKey, sub)
		}
		role, _ := claims["workspace_role"].(string)
		c.Set(canWriteKey, writeRoles[role])

		c.Next()
	}
}

// CanWrite reports whether the authenticated caller may send messages.
func CanWrite(c *gin.Context) bool {
	v, exists := c.Get(canWriteKey)
	if !exists {
		return false
	}
	canWrite, _ := v.(bool)
	return canWrite
}

// UserID returns the authenticated subject, if any.
func UserID(c *gin.Context) string {
	v, exists := c.Get(userIDKey)
	if !exists {
		return ""
	}
	id, _ := v.(string)
	return id
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": message,
			"type":    "unauthorized_error",
		},
	})
}
