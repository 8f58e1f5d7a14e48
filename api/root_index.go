package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to OBALA API by WAIT Technologies.",
	})
}
