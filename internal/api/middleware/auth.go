package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type ServiceAuthMiddleware struct {
	serviceSecret string
}

func NewServiceAuthMiddleware(serviceSecret string) *ServiceAuthMiddleware {
	return &ServiceAuthMiddleware{
		serviceSecret: serviceSecret,
	}
}

// RequireService guards the internal API. Callers are backend services, not
// end users; the bearer token must be an HMAC JWT signed with the shared
// service secret and carry a "service" claim naming the caller.
func (sm *ServiceAuthMiddleware) RequireService() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(sm.serviceSecret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		service, ok := claims["service"].(string)
		if !ok || service == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing service claim"})
			c.Abort()
			return
		}

		c.Set("service", service)
		c.Next()
	}
}
