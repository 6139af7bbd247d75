package handler

import (
	_ "mystic-forest-server/docs" // регистрирует swagger спецификацию

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterDocsRoutes отдает Swagger UI на /swagger/index.html и спецификацию на /swagger/doc.json.
func RegisterDocsRoutes(router *gin.Engine) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
