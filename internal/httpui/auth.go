package httpui

import (
	"net/http"

	"github.com/2300031420/Tastoria5/internal/session"

	"github.com/gin-gonic/gin"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ident, err := h.sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    ident,
	})
}

type signUpRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *Handler) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ident, err := h.sessions.SignUp(
		c.Request.Context(),
		req.Name,
		req.Email,
		req.Password,
		req.ConfirmPassword,
	)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    ident,
	})
}

// signOut always clears local state; the response is idempotent.
func (h *Handler) signOut(c *gin.Context) {
	h.sessions.SignOut(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	ident := h.sessions.CurrentIdentity()
	if ident == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"state":    h.sessions.State().String(),
			"redirect": "/sign-in",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state": session.StateAuthenticated.String(),
		"user":  ident,
	})
}

func (h *Handler) profile(c *gin.Context) {
	prof, err := h.sessions.Profile(c.Request.Context())
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, prof)
}
