package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bfc-aero/charter-leads-api/internal/models"
	"github.com/bfc-aero/charter-leads-api/internal/service"
	appErrors "github.com/bfc-aero/charter-leads-api/pkg/errors"
	"github.com/bfc-aero/charter-leads-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing the resolved session claims.
const ContextClaimsKey = "sessionClaims"

// ContextOperatorKey is the gin context key storing the resolved operator.
const ContextOperatorKey = "currentOperator"

// CSRFHeader is the request header carrying the anti-forgery token on
// mutating admin requests.
const CSRFHeader = "X-CSRF-Token"

// Auth protects admin routes by requiring a valid bearer token bound to a
// live session.
func Auth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, operator, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Set(ContextOperatorKey, operator)
		c.Next()
	}
}

// CSRF verifies the anti-forgery header against the session token. It runs
// after Auth and only on state-changing routes.
func CSRF(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if err := authService.VerifyCSRF(c.Request.Context(), claims.SessionID, c.GetHeader(CSRFHeader)); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// ClaimsFrom extracts the session claims set by Auth, or nil.
func ClaimsFrom(c *gin.Context) *models.SessionClaims {
	value, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// OperatorFrom extracts the operator set by Auth, or nil.
func OperatorFrom(c *gin.Context) *models.Operator {
	value, ok := c.Get(ContextOperatorKey)
	if !ok {
		return nil
	}
	operator, ok := value.(*models.Operator)
	if !ok {
		return nil
	}
	return operator
}
