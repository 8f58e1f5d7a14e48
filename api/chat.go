package api

import (
	"net/http"

	"github.com/99-kofi/Obala-Twi-API/model"
	"github.com/99-kofi/Obala-Twi-API/quota"
	"github.com/99-kofi/Obala-Twi-API/upstream"
	"github.com/99-kofi/Obala-Twi-API/validators"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type chatBody struct {
	Prompt string `json:"prompt"`
}

// ObalaChat orchestrates one metered chat request. The middleware has
// already resolved the key to a user, here we reserve a usage unit,
// call the generation and speech services, and only commit the unit
// once their outcome is known. Upstream failures degrade the payload
// (fallback text, null audio) instead of failing the request
func (a *API) ObalaChat(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet("user").(*model.User)

	reservation, err := a.Quota.Check(user)
	if err != nil {
		switch err {
		case quota.ErrKeyExpired:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":     "API key expired",
				"requestID": requestID,
			})
		case quota.ErrLimitReached:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Usage limit reached. Upgrade plan.",
				"requestID": requestID,
			})
		}
		return
	}

	var data chatBody
	if err := c.ShouldBind(&data); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if err := validators.PromptValidator(data.Prompt); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Prompt required",
			"requestID": requestID,
		})
		return
	}

	ctx := c.Request.Context()

	reply, err := a.Generator.Reply(ctx, data.Prompt)
	if err != nil {
		// Fail-soft: the user always gets a reply, never a 5xx from
		// generation failure
		reply = upstream.FallbackReply

		zap.L().Warn("Generation failed, answering with fallback reply", zap.Error(err), zap.String("requestID", requestID))
	}

	var audio any

	path, err := a.Speech.Synthesize(ctx, reply)
	if err != nil {
		zap.L().Warn("Speech synthesis failed, answering without audio", zap.Error(err), zap.String("requestID", requestID))
	} else if path != "" {
		audio = path
	}

	charged, err := reservation.Commit()
	if err != nil {
		if err == quota.ErrLimitReached {
			// A concurrent request on the same key won the last unit
			// between our pre-check and now
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "Usage limit reached. Upgrade plan.",
				"requestID": requestID,
			})
			return
		}

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to commit usage", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response": reply,
		"audio":    audio,
		"usage": gin.H{
			"used":  charged.RequestsUsed,
			"limit": charged.RequestLimit,
			"plan":  charged.Plan,
		},
	})
}
