package httpui

import (
	"net/http"

	"github.com/2300031420/Tastoria5/internal/logger"
	"github.com/2300031420/Tastoria5/internal/session"

	"github.com/gin-gonic/gin"
)

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	state := beginState(c)
	challenge := beginPKCE(c)
	rememberRedirect(c, c.Query("redirect"))

	authURL, err := h.sessions.FederatedAuthURL(providerName, state, challenge)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	// The consent screen was dismissed or denied. That resolves the
	// flow to a cancelled result: no message, back to sign-in.
	if errParam := c.Query("error"); errParam != "" {
		err := h.sessions.DismissFederated(providerName)
		if session.KindOf(err) != session.KindCancelled {
			writeAuthError(c, err)
			return
		}
		logger.Info("federated flow cancelled", map[string]any{
			"provider": providerName,
			"reason":   errParam,
		})
		c.Redirect(http.StatusFound, "/sign-in")
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	verifier := pkceVerifier(c)
	if verifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}

	ident, err := h.sessions.CompleteFederated(
		c.Request.Context(),
		providerName,
		code,
		verifier,
	)
	if err != nil {
		writeAuthError(c, err)
		return
	}

	logger.Info("federated sign-in complete", map[string]any{
		"provider": providerName,
		"user_id":  ident.ID,
	})

	c.Redirect(http.StatusFound, takeRedirect(c))
}
