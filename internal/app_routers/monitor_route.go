package approuters

import (
	"github.com/nmanikumar5/Swappio-BE/internal/configuration"

	"github.com/gin-gonic/gin"
)

func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorRoute := router.Group("/monitor")
	{
		monitorRoute.GET("/stats", container.MonitorHandler.GetStats)
	}
}
