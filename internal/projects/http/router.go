package http

import "github.com/gin-gonic/gin"

// Register attaches project routes to the given router groups.
func (h *Handler) Register(projects, enterprises *gin.RouterGroup) {
	projects.POST("", h.publish)
	projects.GET("", h.list)
	projects.GET("/visible", h.listVisible)
	projects.GET("/:id", h.get)
	projects.PATCH("/:id", h.update)
	projects.DELETE("/:id", h.delete)
	projects.PATCH("/:id/status", h.updateStatus)

	enterprises.GET("/:enterprise_id/projects", h.listForEnterprise)
}
