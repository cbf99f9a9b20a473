package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/feral-file/nft-benefit-registry/internal/api/shared/errors"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(message))
}

// respondInternalError responds with an internal server error
func respondInternalError(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message, details...))
}

// respondDatabaseError responds with a database error
func respondDatabaseError(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusInternalServerError, apierrors.NewDatabaseError(message, details...))
}

// respondRegistryError maps registry sentinel errors onto HTTP responses
func respondRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		respondBadRequest(c, "Invalid argument", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Caller is not authorized", err.Error()))
	case errors.Is(err, domain.ErrNotFound):
		respondNotFound(c, "Benefit not found")
	case errors.Is(err, domain.ErrTokenNotFound):
		respondNotFound(c, "Token not found")
	case errors.Is(err, domain.ErrBenefitAlreadyExists):
		c.JSON(http.StatusConflict, apierrors.NewConflictError("Benefit already exists", err.Error()))
	case errors.Is(err, domain.ErrCapacityExceeded):
		c.JSON(http.StatusUnprocessableEntity, apierrors.NewCapacityExceededError("Benefit capacity exceeded", err.Error()))
	case errors.Is(err, domain.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, apierrors.NewPaymentRequiredError("Insufficient payment", err.Error()))
	default:
		respondInternalError(c, "Registry operation failed")
	}
}
