package routes

import (
	"avocare/api/handlers"
	"avocare/api/middleware"

	"github.com/gin-gonic/gin"
)

// PublicApi - эндпоинты без обязательной аутентификации
func PublicApi(router *gin.Engine, b *handlers.Backend) *gin.RouterGroup {
	publicEndpoints := router.Group("/api/")
	publicEndpoints.Use(middleware.OptionalJWTAuth(b.Secret()))
	{
		publicEndpoints.GET("forum/", b.ListPosts)

		publicEndpoints.POST("users/login", b.Login)
		publicEndpoints.POST("users/register", b.Register)
		publicEndpoints.POST("users/resend-verification", b.ResendVerification)

		publicEndpoints.POST("chatbot/chat", b.Chat)
		publicEndpoints.GET("chatbot/suggestions", b.ChatSuggestions)
	}
	return publicEndpoints
}
