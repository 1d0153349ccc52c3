package controllers

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"custody/config"
	"custody/pkg/consts"
	"custody/pkg/entities"
	"custody/pkg/middlewares"
	"custody/pkg/repo/driver/medium"
	"custody/pkg/usecases"
	"custody/utilities"
)

type VaultController struct {
	router      *gin.RouterGroup
	useCases    usecases.VaultUseCaseImply
	ws          *medium.Socket
	middleWares *middlewares.Middlewares
	decimals    int32
}

func NewVaultController(
	router *gin.RouterGroup, vaultUseCases usecases.VaultUseCaseImply, ws *medium.Socket,
	middleWare *middlewares.Middlewares, decimals int32,
) *VaultController {
	return &VaultController{
		router:      router,
		useCases:    vaultUseCases,
		ws:          ws,
		middleWares: middleWare,
		decimals:    decimals,
	}
}

// InitRoutes initializes the routes for the VaultController.
func (c *VaultController) InitRoutes() {
	v1 := c.router.Group(config.GetConfig().Server.APIVersion)
	v1.GET("/vaults/events/ws", c.WebsocketHandler)

	verifyToken := v1.Group("", c.middleWares.ValidateToken)
	{
		verifyToken.GET("/vaults/:id", c.GetVault)
		verifyToken.GET("/vaults/:id/events", c.GetEvents)
		verifyToken.GET("/vaults/:id/payments", c.GetPayments)

		verifyToken.POST("/vaults/:id/initialize", c.Initialize)
		verifyToken.PUT("/vaults/:id/limits", c.SetVaultLimits)

		verifyToken.POST("/vaults/:id/children", c.CreateChildVault)
		verifyToken.POST("/vaults/:id/children/:child/initialize", c.InitializeChildVault)
		verifyToken.PUT("/vaults/:id/children/:child/limits", c.SetChildVaultLimits)

		verifyToken.POST("/vaults/:id/spenders", c.AuthorizeSpender)
		verifyToken.DELETE("/vaults/:id/spenders/:spender", c.RemoveAuthorizedSpender)
		verifyToken.POST("/vaults/:id/spenders/:spender/recipients", c.AuthorizeRecipient)
		verifyToken.DELETE("/vaults/:id/spenders/:spender/recipients/:recipient", c.RemoveAuthorizedRecipient)

		verifyToken.POST("/vaults/:id/payments", c.SendToAuthorizedRecipient)

		verifyToken.POST("/vaults/:id/topup", c.TopUp)
		verifyToken.POST("/vaults/:id/overflow", c.SendBackOverflow)
		verifyToken.POST("/vaults/:id/cancel", c.CancelVault)
		verifyToken.POST("/vaults/:id/escape", c.EscapeHatch)
	}

	admin := verifyToken.Group("", c.middleWares.IsAdminUser)
	{
		admin.GET("/admin/vaults", c.ListRoots)
		admin.POST("/admin/vaults", c.CreateRoot)
		admin.POST("/admin/vaults/:id/deposit", c.Deposit)
	}
}

func intParam(ctx *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(ctx.Param(name))
	if err != nil || v < 0 {
		badRequest(ctx, "parameter "+name+" must be a non-negative integer", "Incorrect request")
		return 0, false
	}
	return v, true
}

func caller(ctx *gin.Context) string {
	user, _ := ctx.Get(consts.UserAddress)
	return cast.ToString(user)
}

func (c *VaultController) amount(ctx *gin.Context, amount uint64, value string) (uint64, bool) {
	if value == "" {
		return amount, true
	}
	parsed, err := utilities.ParseUnits(value, c.decimals)
	if err != nil {
		badRequest(ctx, "invalid value", err.Error())
		return 0, false
	}
	return parsed, true
}

func pagination(ctx *gin.Context) (int, []byte, bool) {
	pageSize, pageState := ctx.DefaultQuery("page_size", consts.DefaultPageSize), ctx.Query("page_state")

	// decoding base64 encoded page state to []byte
	currPageState, err := base64.URLEncoding.DecodeString(pageState)
	if err != nil {
		badRequest(ctx, "failed to decode page state", err.Error())
		return 0, nil, false
	}

	numPageSize, err := strconv.Atoi(pageSize)
	if err != nil || numPageSize <= 0 {
		badRequest(ctx, "failed to convert page size to a positive integer", "Incorrect request")
		return 0, nil, false
	}

	return numPageSize, currPageState, true
}

func ok(ctx *gin.Context, status int, message string, data interface{}) {
	ctx.JSON(status, entities.Response{
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

func (c *VaultController) CreateRoot(ctx *gin.Context) {
	var req entities.CreateRootRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	if req.Owner == "" {
		badRequest(ctx, "owner is required", "Incorrect request")
		return
	}

	id, err := c.useCases.CreateRoot(ctx, req)
	if err != nil {
		abortWithError(ctx, err, "failed to create root vault")
		return
	}

	ok(ctx, http.StatusCreated, "root vault created", map[string]int{"id": id})
}

func (c *VaultController) ListRoots(ctx *gin.Context) {
	roots, err := c.useCases.RootVaults(ctx)
	if err != nil {
		abortWithError(ctx, err, "failed to list root vaults")
		return
	}

	ok(ctx, http.StatusOK, "root vaults fetched successfully", roots)
}

func (c *VaultController) GetVault(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	st, err := c.useCases.State(ctx, id)
	if err != nil {
		abortWithError(ctx, err, "failed to fetch vault")
		return
	}

	ok(ctx, http.StatusOK, "vault fetched successfully", st)
}

func (c *VaultController) GetEvents(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}
	pageSize, pageState, valid := pagination(ctx)
	if !valid {
		return
	}

	data, nextPageState, err := c.useCases.Events(ctx, id, pageSize, pageState)
	if err != nil {
		abortWithError(ctx, err, "failed fetching events")
		return
	}

	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: http.StatusOK,
			Message:    "events fetched successfully",
			PaginationMetaData: &entities.PaginationMetaData{
				Size:     len(data),
				PageSize: pageSize,
				Next:     base64.URLEncoding.EncodeToString(nextPageState),
				Prev:     ctx.Query("page_state"),
			},
			Data: data,
		},
	)
}

func (c *VaultController) GetPayments(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}
	pageSize, pageState, valid := pagination(ctx)
	if !valid {
		return
	}

	data, nextPageState, err := c.useCases.Payments(ctx, id, pageSize, pageState)
	if err != nil {
		abortWithError(ctx, err, "failed fetching payments")
		return
	}

	ctx.JSON(
		http.StatusOK, entities.Response{
			StatusCode: http.StatusOK,
			Message:    "payments fetched successfully",
			PaginationMetaData: &entities.PaginationMetaData{
				Size:     len(data),
				PageSize: pageSize,
				Next:     base64.URLEncoding.EncodeToString(nextPageState),
				Prev:     ctx.Query("page_state"),
			},
			Data: data,
		},
	)
}

func (c *VaultController) Initialize(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var limits entities.Limits
	if err := ctx.ShouldBindJSON(&limits); err != nil {
		badRequest(ctx, "failed to parse limits", err.Error())
		return
	}

	if err := c.useCases.Initialize(ctx, id, caller(ctx), limits); err != nil {
		abortWithError(ctx, err, "failed to initialize vault")
		return
	}

	ok(ctx, http.StatusOK, "vault initialized", nil)
}

func (c *VaultController) SetVaultLimits(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var limits entities.Limits
	if err := ctx.ShouldBindJSON(&limits); err != nil {
		badRequest(ctx, "failed to parse limits", err.Error())
		return
	}

	if err := c.useCases.SetVaultLimits(ctx, id, caller(ctx), limits); err != nil {
		abortWithError(ctx, err, "failed to update vault limits")
		return
	}

	ok(ctx, http.StatusOK, "vault limits updated", nil)
}

func (c *VaultController) CreateChildVault(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var req entities.CreateChildRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	child, err := c.useCases.CreateChildVault(ctx, id, caller(ctx), req.Name)
	if err != nil {
		abortWithError(ctx, err, "failed to create child vault")
		return
	}

	ok(ctx, http.StatusCreated, "child vault created", child)
}

func (c *VaultController) InitializeChildVault(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}
	index, valid := intParam(ctx, "child")
	if !valid {
		return
	}

	var req entities.InitializeChildRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	if err := c.useCases.InitializeChildVault(ctx, id, caller(ctx), index, req); err != nil {
		abortWithError(ctx, err, "failed to initialize child vault")
		return
	}

	ok(ctx, http.StatusOK, "child vault initialized", nil)
}

func (c *VaultController) SetChildVaultLimits(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}
	index, valid := intParam(ctx, "child")
	if !valid {
		return
	}

	var limits entities.Limits
	if err := ctx.ShouldBindJSON(&limits); err != nil {
		badRequest(ctx, "failed to parse limits", err.Error())
		return
	}

	if err := c.useCases.SetChildVaultLimits(ctx, id, caller(ctx), index, limits); err != nil {
		abortWithError(ctx, err, "failed to update child vault limits")
		return
	}

	ok(ctx, http.StatusOK, "child vault limits updated", nil)
}

func (c *VaultController) AuthorizeSpender(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var req entities.AuthorizeSpenderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	if req.Address == "" {
		badRequest(ctx, "address is required", "Incorrect request")
		return
	}

	spenderID, err := c.useCases.AuthorizeSpender(ctx, id, caller(ctx), req)
	if err != nil {
		abortWithError(ctx, err, "failed to authorize spender")
		return
	}

	ok(ctx, http.StatusOK, "spender authorized", map[string]int{"id": spenderID})
}

func (c *VaultController) RemoveAuthorizedSpender(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	if err := c.useCases.RemoveAuthorizedSpender(ctx, id, caller(ctx), ctx.Param("spender")); err != nil {
		abortWithError(ctx, err, "failed to remove spender")
		return
	}

	ok(ctx, http.StatusOK, "spender removed", nil)
}

func (c *VaultController) AuthorizeRecipient(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var req entities.AuthorizeRecipientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	if req.Address == "" {
		badRequest(ctx, "address is required", "Incorrect request")
		return
	}

	recipientID, err := c.useCases.AuthorizeRecipient(ctx, id, caller(ctx), ctx.Param("spender"), req)
	if err != nil {
		abortWithError(ctx, err, "failed to authorize recipient")
		return
	}

	ok(ctx, http.StatusOK, "recipient authorized", map[string]int{"id": recipientID})
}

func (c *VaultController) RemoveAuthorizedRecipient(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	err := c.useCases.RemoveAuthorizedRecipient(ctx, id, caller(ctx), ctx.Param("spender"), ctx.Param("recipient"))
	if err != nil {
		abortWithError(ctx, err, "failed to remove recipient")
		return
	}

	ok(ctx, http.StatusOK, "recipient removed", nil)
}

// SendToAuthorizedRecipient pays out of the vault; the authenticated user is
// the spender.
func (c *VaultController) SendToAuthorizedRecipient(ctx *gin.Context) {
	log := utilities.NewLogger("SendToAuthorizedRecipient")

	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var req entities.PaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	amount, valid := c.amount(ctx, req.Amount, req.Value)
	if !valid {
		return
	}
	req.Amount = amount

	if req.Recipient == "" || req.Amount == 0 {
		badRequest(ctx, "recipient and a positive amount are required", "Incorrect request")
		return
	}

	payment, err := c.useCases.SendToAuthorizedRecipient(ctx, id, caller(ctx), req)
	if err != nil && !payment.Paid {
		abortWithError(ctx, err, "payment rejected")
		return
	}
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{"vault": id, "payment": payment.ID}).
			Warn("payment sent, follow-up top up failed")
	}

	ok(ctx, http.StatusOK, "payment sent", payment)
}

func (c *VaultController) Deposit(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var req entities.AmountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "failed to parse request body", err.Error())
		return
	}

	amount, valid := c.amount(ctx, req.Amount, req.Value)
	if !valid {
		return
	}

	if err := c.useCases.Deposit(ctx, id, amount); err != nil {
		abortWithError(ctx, err, "failed to deposit")
		return
	}

	ok(ctx, http.StatusOK, "deposit credited", map[string]uint64{"amount": amount})
}

func (c *VaultController) TopUp(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	amount, err := c.useCases.TopUp(ctx, id)
	if err != nil {
		abortWithError(ctx, err, "failed to top up vault")
		return
	}

	ok(ctx, http.StatusOK, "vault topped up", map[string]uint64{"amount": amount})
}

func (c *VaultController) SendBackOverflow(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	amount, err := c.useCases.SendBackOverflow(ctx, id, caller(ctx))
	if err != nil {
		abortWithError(ctx, err, "failed to return overflow")
		return
	}

	ok(ctx, http.StatusOK, "overflow returned", map[string]uint64{"amount": amount})
}

func (c *VaultController) CancelVault(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	var req entities.CancelRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "failed to parse request body", err.Error())
			return
		}
	}

	result, err := c.useCases.CancelVault(ctx, id, caller(ctx), req.Budget)
	if err != nil {
		abortWithError(ctx, err, "failed to cancel vault")
		return
	}

	message := "vault canceled"
	if !result.Done {
		message = "vault partially canceled, call again to continue"
	}

	ok(ctx, http.StatusOK, message, result)
}

func (c *VaultController) EscapeHatch(ctx *gin.Context) {
	id, valid := intParam(ctx, "id")
	if !valid {
		return
	}

	amount, err := c.useCases.EscapeHatch(ctx, id, caller(ctx))
	if err != nil {
		abortWithError(ctx, err, "failed to call escape hatch")
		return
	}

	ok(ctx, http.StatusOK, "escape hatch called", map[string]uint64{"amount": amount})
}

// WebsocketHandler streams events of one vault, or of every vault when no
// vault is given.
func (c *VaultController) WebsocketHandler(ctx *gin.Context) {
	address := ctx.Query("address")
	token := ctx.Query("token")

	if err := c.middleWares.VerifyWebsocketRequest(ctx, address, token); err != nil {
		ctx.JSON(
			http.StatusUnauthorized, entities.Response{
				StatusCode: http.StatusUnauthorized,
				Message:    err.Error(),
			},
		)
		return
	}

	identifier := medium.AllVaults
	if vault := ctx.Query("vault"); vault != "" {
		id, err := strconv.Atoi(vault)
		if err != nil {
			badRequest(ctx, "vault must be an integer", "Incorrect request")
			return
		}
		if _, err := c.useCases.State(ctx, id); err != nil {
			abortWithError(ctx, err, "cannot subscribe to vault")
			return
		}
		identifier = medium.FormatIdentifier("vault", id)
	}

	upgrader := medium.Upgrade()
	wsConn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("failed to upgrade websocket connection")
		return
	}

	c.ws.Add(identifier, wsConn)
}
