package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/server/respond"
)

type identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
}

type verification struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id"`
	Message       string `json:"message"`
}

// registerAuthRoutes mounts the identity endpoints behind Auth.
func registerAuthRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, identity{
			UserID: middleware.UserIDFromContext(c),
			Email:  middleware.UserEmailFromContext(c),
		})
	})
	rg.GET("/auth/verify", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, verification{
			Authenticated: true,
			UserID:        middleware.UserIDFromContext(c),
			Message:       "Token is valid",
		})
	})
}
