package httpui

import (
	"net/http"

	"github.com/2300031420/Tastoria5/internal/cart"
	"github.com/2300031420/Tastoria5/internal/session"

	"github.com/gin-gonic/gin"
)

// Handler exposes the app core over the local HTTP surface the UI
// talks to.
type Handler struct {
	sessions *session.Manager
	cart     *cart.Store
}

func NewHandler(sessions *session.Manager, cartStore *cart.Store) *Handler {
	return &Handler{
		sessions: sessions,
		cart:     cartStore,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/signup", h.signUp)
	r.POST("/auth/login", h.signIn)
	r.POST("/auth/logout", h.signOut)
	r.GET("/auth/me", h.me)

	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)

	authed := r.Group("/")
	authed.Use(h.requireAuth())

	authed.GET("/users/profile", h.profile)

	authed.GET("/cart", h.getCart)
	authed.POST("/cart", h.updateCart)
	authed.GET("/cart/total", h.cartTotal)
	authed.DELETE("/cart/:item_id", h.removeCartItem)
	authed.DELETE("/cart", h.clearCart)
}

// requireAuth gates routes on a signed-in identity. Unauthenticated
// callers get a redirect hint to the sign-in entry point.
func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.sessions.CurrentIdentity() == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "unauthorized",
				"redirect": "/sign-in",
			})
			return
		}
		c.Next()
	}
}

// writeAuthError maps the session error kinds onto HTTP responses.
func writeAuthError(c *gin.Context, err error) {
	switch session.KindOf(err) {
	case session.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case session.KindInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case session.KindSessionExpired:
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    err.Error(),
			"redirect": "/sign-in",
		})
	case session.KindTransient:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case session.KindCancelled:
		c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
