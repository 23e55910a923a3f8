package api

import (
	"log"
	"net/http"

	"github.com/mithilsmehta/TaskFlow/internal/models"

	"github.com/gin-gonic/gin"
)

// MockTokenHandler handles POST /api/auth/mock-token
// Development only: registers the user in the directory and returns a signed token.
// Request body: {"userId", "name", "email", "role": "admin"|"member", "companyId"}
// Response: {"token": "jwt-token-string"}
func (h *Handlers) MockTokenHandler(c *gin.Context) {
	var req models.MockTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[AUTH] MockToken: Invalid request body - %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	user := models.User{
		ID:        req.UserID,
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
		CompanyID: req.CompanyID,
	}
	if err := h.users.UpsertUser(c.Request.Context(), user); err != nil {
		log.Printf("[AUTH] MockToken: Failed to register user=%s - %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to register user",
			"details": err.Error(),
		})
		return
	}

	token, err := h.jwtService.GenerateToken(models.Identity{
		UserID:    req.UserID,
		Name:      req.Name,
		Role:      req.Role,
		CompanyID: req.CompanyID,
	})
	if err != nil {
		log.Printf("[AUTH] MockToken: Token generation failed - %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate token",
			"details": err.Error(),
		})
		return
	}

	log.Printf("[AUTH] MockToken: Issued token for user=%s, company=%s, role=%s", req.UserID, req.CompanyID, req.Role)
	c.JSON(http.StatusOK, models.AuthResponse{Token: token})
}
