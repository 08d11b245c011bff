package approuters

import (
	"github.com/nmanikumar5/Swappio-BE/internal/configuration"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/api/users")
	{
		userRoute.POST("/register", container.UserHandler.Register)
		userRoute.POST("/login", container.UserHandler.Login)
	}
}
