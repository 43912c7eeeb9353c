package app

import (
	"context"
	"time"

	"github.com/2300031420/Tastoria5/internal/backend"
	"github.com/2300031420/Tastoria5/internal/cart"
	"github.com/2300031420/Tastoria5/internal/config"
	"github.com/2300031420/Tastoria5/internal/httpui"
	"github.com/2300031420/Tastoria5/internal/identity"
	"github.com/2300031420/Tastoria5/internal/identity/provider"
	"github.com/2300031420/Tastoria5/internal/identity/provider/google"
	"github.com/2300031420/Tastoria5/internal/logger"
	"github.com/2300031420/Tastoria5/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	api := backend.NewClient(cfg.BackendBaseURL, nil)

	var providers []provider.FederatedProvider
	var providerErr error
	if cfg.GoogleClientID != "" {
		googleProvider, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			// Provider unreachable is surfaced as a configuration
			// failure after restore, not a startup abort: password
			// sign-in keeps working.
			providerErr = err
			logger.Error("google provider unavailable", map[string]any{
				"error": err.Error(),
			})
		} else {
			providers = append(providers, googleProvider)
		}
	} else {
		logger.Warn("google oauth not configured, federated sign-in disabled", nil)
	}

	sessions := session.NewManager(api, infra.store, provider.NewRegistry(providers...))
	cartStore := cart.NewStore(infra.store)

	// Key the cart off the signed-in identity. Load on sign-in,
	// unload on sign-out; the persisted cart survives either way.
	sessions.Subscribe(func(st session.State, ident *identity.Identity) {
		if st == session.StateAuthenticated && ident != nil {
			if err := cartStore.Load(context.Background(), ident.ID); err != nil {
				logger.Warn("cart load failed", map[string]any{
					"identity_id": ident.ID,
					"error":       err.Error(),
				})
			}
			return
		}
		cartStore.Unload()
	})

	// ----------------------------
	// Session restoration
	// ----------------------------

	restoreCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := sessions.Restore(restoreCtx); err != nil {
		logger.Warn("session restore deferred", map[string]any{
			"error": err.Error(),
		})
	}
	cancel()

	// A provider that could not be constructed is recorded only after
	// restore: an identity restored from the store is never torn down
	// over it.
	if providerErr != nil {
		sessions.Fail(providerErr)
	}

	logger.Info("session state after restore", map[string]any{
		"state": sessions.State().String(),
	})

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	httpui.NewHandler(sessions, cartStore).RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router, infra.cleanup, nil
}
