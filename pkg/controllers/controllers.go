package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"custody/config"
	"custody/pkg/entities"
	"custody/pkg/usecases"
	"custody/utilities"
)

type Controller struct {
	router   *gin.RouterGroup
	useCases usecases.UseCaseImply
	vaults   usecases.VaultUseCaseImply
}

// NewController
func NewController(
	router *gin.RouterGroup, useCases usecases.UseCaseImply, vaults usecases.VaultUseCaseImply,
) *Controller {
	return &Controller{
		router:   router,
		useCases: useCases,
		vaults:   vaults,
	}
}

// InitRoutes
func (c *Controller) InitRoutes() {
	v1 := c.router.Group(config.GetConfig().Server.APIVersion)
	{
		v1.GET("/", c.RootHandler)
		v1.GET("/health", c.HealthHandler)
		v1.GET("/db/health", c.DatabaseHealthHandler)
	}
}

func (c *Controller) RootHandler(ctx *gin.Context) {
	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: http.StatusOK,
			Message:    "custody API, vault controllers are served under /vaults",
		},
	)
}

// HealthHandler reports the vault engine. It is unavailable until the stored
// state has been restored.
func (c *Controller) HealthHandler(ctx *gin.Context) {
	health := c.vaults.Health(ctx)

	status, message := http.StatusOK, "health check ok"
	switch {
	case !health.Restored:
		status, message = http.StatusServiceUnavailable, "vault state not restored"
	case health.Dirty:
		message = "health check ok, vault state checkpoint pending"
	}

	ctx.JSON(
		status, entities.Response{
			StatusCode: status,
			Message:    message,
			Data:       health,
		},
	)
}

func (c *Controller) DatabaseHealthHandler(ctx *gin.Context) {
	if err := c.useCases.DBHealthHandler(ctx); err != nil {
		utilities.NewLogger("DatabaseHealthHandler").WithError(err).Error("database health check failed")
		ctx.JSON(
			http.StatusServiceUnavailable, entities.ErrorResponse{
				StatusCode: http.StatusServiceUnavailable,
				Error:      err.Error(),
				Message:    "unhealthy database",
			},
		)
		return
	}

	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: http.StatusOK,
			Message:    "database health is okay",
		},
	)
}
