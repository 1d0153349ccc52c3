package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"custody/config"
	"custody/pkg/entities"
	"custody/pkg/usecases"
	"custody/utilities"
)

type AuthController struct {
	router   *gin.RouterGroup
	useCases usecases.AuthUseCaseImply
}

func NewAuthController(router *gin.RouterGroup, authUseCases usecases.AuthUseCaseImply) *AuthController {
	return &AuthController{
		router:   router,
		useCases: authUseCases,
	}
}

func (a *AuthController) InitRoutes() {
	v1 := a.router.Group(config.GetConfig().Server.APIVersion)
	{
		v1.POST("/login", a.Login)
	}
}

// Login exchanges a wallet signature for an API token.
func (a *AuthController) Login(ctx *gin.Context) {
	log := utilities.NewLogger("Login")

	var req entities.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	if req.Address == "" || req.Signature == "" {
		badRequest(ctx, "address and signature are required", "Incorrect request")
		return
	}

	log.Info("Received Login request")

	resp, err := a.useCases.Login(ctx, req)
	if err != nil {
		abortWithError(ctx, err, "Login Failed")
		return
	}

	ctx.JSON(http.StatusOK, entities.Response{
		StatusCode: http.StatusOK,
		Message:    "Login successful",
		Data:       resp,
	})
}
