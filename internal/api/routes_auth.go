package api

import (
	"github.com/gin-gonic/gin"

	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/app"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/handlers"
	"github.com/TarunSAkkatangerhal/PrismWorklet/internal/middleware"
)

type authRouteDeps struct {
	Handler   *handlers.AuthHandler
	RateStore middleware.RateStore
	Limit     app.WindowLimit
}

func registerAuthRoutes(engine *gin.Engine, requireAuth gin.HandlerFunc, deps authRouteDeps) {
	auth := engine.Group("/auth")
	// Credential endpoints get a tighter limit than the rest of the API.
	auth.Use(middleware.RateLimit(deps.RateStore, deps.Limit.Requests, deps.Limit.Window))
	{
		auth.POST("/request-otp", deps.Handler.RequestOTP)
		auth.POST("/verify-otp", deps.Handler.VerifyOTP)
		auth.POST("/set-password", deps.Handler.SetPassword)
		auth.POST("/login", deps.Handler.Login)
		auth.POST("/refresh", deps.Handler.Refresh)
		auth.POST("/forgot-password", deps.Handler.ForgotPassword)
		auth.POST("/reset-password", deps.Handler.ResetPassword)
	}

	account := engine.Group("/auth")
	account.Use(requireAuth)
	{
		account.GET("/me", deps.Handler.Me)
		account.GET("/profile", deps.Handler.GetProfile)
		account.PUT("/profile", deps.Handler.UpdateProfile)
	}
}
