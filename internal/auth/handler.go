package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// LoginHandler issues an access token for the configured operator account.
func LoginHandler(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		if req.User == "" || req.Password == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user, password required"})
			return
		}

		token, err := m.Login(time.Now(), req.User, req.Password)
		if err != nil {
			if errors.Is(err, ErrBadCredentials) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": token})
	}
}
