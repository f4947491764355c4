package routes

import (
	"avocare/api/handlers"
	"avocare/api/middleware"

	"github.com/gin-gonic/gin"
)

// ForumApi - изменяющие эндпоинты форума, только с токеном
func ForumApi(router *gin.Engine, b *handlers.Backend) *gin.RouterGroup {
	forumEndpoints := router.Group("/api/forum/")
	forumEndpoints.Use(middleware.JWTAuth(b.Secret()))
	{
		forumEndpoints.POST("", b.CreatePost)
		forumEndpoints.GET("archived", b.ListArchivedPosts)
		forumEndpoints.PUT(":id", b.UpdatePost)
		forumEndpoints.DELETE(":id", b.DeletePost)
		forumEndpoints.PUT(":id/archive", b.ArchivePost)
		forumEndpoints.PUT(":id/unarchive", b.UnarchivePost)
		forumEndpoints.PUT(":id/like", b.LikePost)

		forumEndpoints.POST(":id/comment", b.AddComment)
		forumEndpoints.PUT(":id/comment/:cid", b.UpdateComment)
		forumEndpoints.DELETE(":id/comment/:cid", b.DeleteComment)
		forumEndpoints.PUT(":id/comment/:cid/like", b.LikeComment)
	}
	return forumEndpoints
}
