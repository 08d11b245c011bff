package approuters

import (
	"github.com/nmanikumar5/Swappio-BE/internal/auth"
	"github.com/nmanikumar5/Swappio-BE/internal/configuration"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/chat")
	chatRoute.Use(auth.Middleware(container.Config.JWTSecret))
	{
		chatRoute.GET("/conversations", container.ChatHandler.GetConversations)
		chatRoute.GET("/messages/:counterpartId", container.ChatHandler.GetMessages)
	}
}
