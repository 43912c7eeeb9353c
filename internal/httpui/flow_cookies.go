package httpui

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	stateCookieName    = "__oauth_state"
	pkceCookieName     = "__oauth_pkce"
	redirectCookieName = "redirectAfterLogin"
	flowTTL            = 5 * time.Minute
)

func randomToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

func setFlowCookie(c *gin.Context, name, value string, ttl time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func clearFlowCookie(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// beginState issues the anti-CSRF state cookie for an oauth flow.
func beginState(c *gin.Context) string {
	state := randomToken()
	setFlowCookie(c, stateCookieName, state, flowTTL)
	return state
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie, err := c.Request.Cookie(stateCookieName)
	if err != nil {
		return false
	}

	return cookie.Value == stateQuery
}

// beginPKCE issues the verifier cookie and returns the S256 challenge.
func beginPKCE(c *gin.Context) string {
	verifier := randomToken()

	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	setFlowCookie(c, pkceCookieName, verifier, flowTTL)
	return challenge
}

func pkceVerifier(c *gin.Context) string {
	cookie, err := c.Request.Cookie(pkceCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// rememberRedirect stores the post-login path for the UI flow. This is
// a UI concern, so it travels as a cookie rather than through the
// core-owned storage keys.
func rememberRedirect(c *gin.Context, path string) {
	if path == "" {
		return
	}
	setFlowCookie(c, redirectCookieName, path, flowTTL)
}

func takeRedirect(c *gin.Context) string {
	cookie, err := c.Request.Cookie(redirectCookieName)
	if err != nil || cookie.Value == "" {
		return "/"
	}
	clearFlowCookie(c, redirectCookieName)
	return cookie.Value
}
