package httpserver

import (
	"errors"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/domain"
	"storefront/internal/service/session"
	"storefront/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// writeError maps err onto a status code and error body.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorBody) {
	body := errorBody{Error: string(domain.KindOf(err)), Message: err.Error()}

	var (
		validation  *domain.ValidationError
		persistence *domain.PersistenceError
		payment     *domain.PaymentError
	)
	switch {
	case errors.Is(err, domain.ErrCheckoutInProgress):
		body.Error = "conflict"
		return http.StatusConflict, body
	case errors.Is(err, session.ErrInvalidToken):
		body.Error = "unauthorized"
		return http.StatusUnauthorized, body
	case errors.Is(err, cart.ErrSizeRequired), errors.Is(err, cart.ErrUnknownSize), errors.Is(err, cart.ErrUnexpectedSize):
		body.Error = string(domain.KindValidation)
		body.Fields = []string{"size"}
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &persistence):
		body.TransactionHash = persistence.TxHash
		return http.StatusAccepted, body
	case errors.As(err, &payment):
		return http.StatusPaymentRequired, body
	case errors.Is(err, wallet.ErrNotReady),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		body.Error = "unavailable"
		return http.StatusServiceUnavailable, body
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		errors.As(err, &validation)
		body.Fields = validation.Fields
		return http.StatusBadRequest, body
	case domain.KindPayment:
		return http.StatusPaymentRequired, body
	case domain.KindNotFound:
		return http.StatusNotFound, body
	default:
		body.Error = string(domain.KindInternal)
		body.Message = "internal server error"
		return http.StatusInternalServerError, body
	}
}
