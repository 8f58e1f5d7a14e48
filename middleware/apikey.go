package middleware

import (
	"net/http"

	"github.com/99-kofi/Obala-Twi-API/model"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewAPIKeyMiddleware resolves the X-API-Key header to a user record and
// sets it as user. Identity only: expiry and quota are checked later by
// the quota enforcer, so a request with a valid but expired key passes
// through here
func NewAPIKeyMiddleware(d *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		key := c.GetHeader("X-API-Key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "API key required",
				"requestID": requestID,
			})
			return
		}

		var user model.User

		err := d.Where("api_key = ?", key).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error":     "Invalid API key",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to look up API key", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("user", &user)
		c.Next()
	}
}
