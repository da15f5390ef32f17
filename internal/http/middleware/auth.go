package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/pao-report-backend/internal/http/response"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

// AuthMiddleware verifies HS256 bearer tokens issued by the academic portal.
type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

// NewAuthMiddleware returns nil when secret is empty; routes then stay open.
func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), secret: []byte(secret)}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	if am == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		claims := &jwt.RegisteredClaims{}
		parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return am.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !parsed.Valid {
			am.log.Debug("Rejected token", "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid or expired token"))
			return
		}
		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
