package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"custody/pkg/engine"
	"custody/pkg/entities"
	"custody/pkg/usecases"
)

// errorStatus maps engine and usecase failures to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotOwner), errors.Is(err, engine.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrUnknownVault), errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrCanceled), errors.Is(err, engine.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, engine.ErrInsufficientFunds), errors.Is(err, engine.ErrLimitExceeded),
		errors.Is(err, engine.ErrOutsideWindow), errors.Is(err, engine.ErrRecipientNotReady),
		errors.Is(err, engine.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidLimits), errors.Is(err, engine.ErrExceedsParentLimits),
		errors.Is(err, engine.ErrNotInitialized), errors.Is(err, engine.ErrTooManyChildren),
		errors.Is(err, engine.ErrTooDeep), errors.Is(err, engine.ErrNoEscapeHatch),
		errors.Is(err, usecases.ErrInvalidAddress), errors.Is(err, usecases.ErrUnsupportedChain):
		return http.StatusBadRequest
	case errors.Is(err, usecases.ErrInvalidLogin), errors.Is(err, usecases.ErrLoginExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(ctx *gin.Context, err error, message string) {
	status := errorStatus(err)
	ctx.JSON(
		status, entities.ErrorResponse{
			StatusCode: status,
			Error:      err.Error(),
			Message:    message,
		},
	)
}

func badRequest(ctx *gin.Context, errMsg, message string) {
	ctx.JSON(
		http.StatusBadRequest, entities.ErrorResponse{
			StatusCode: http.StatusBadRequest,
			Error:      errMsg,
			Message:    message,
		},
	)
}
