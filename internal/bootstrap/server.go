package bootstrap

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	app "github.com/mohammadpnp/identity-import/internal/application/user"
	"github.com/mohammadpnp/identity-import/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/identity-import/internal/interfaces/http/echo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

func NewHTTPServer(db *gorm.DB, gatherer prometheus.Gatherer) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("10M"))

	importJobRepo := repository.NewImportJobRepository(db)
	startImport := app.NewStartImportUsers(importJobRepo)
	importHandler := httpecho.NewImportHandler(startImport)
	userQueryRepo := repository.NewUserQueryRepository(db)
	getUserByID := app.NewGetUserByID(userQueryRepo)
	userHandler := httpecho.NewUserHandler(getUserByID)

	httpecho.RegisterRoutes(server, importHandler, userHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	server.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return server
}
