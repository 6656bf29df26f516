package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, userHandler *UserHandler) {
	server.POST("/api/v1/imports/users", importHandler.ImportUsers)
	server.GET("/api/v1/users/:id", userHandler.GetUserByID)
}
