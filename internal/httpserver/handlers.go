package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	catalogPath      = "/"
	confirmationPath = "/order-confirmation"
)

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

func (h *handlers) listProducts(c *gin.Context) {
	items := h.deps.Catalog.List()
	out := make([]productResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toProduct(it))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, h.logger, &domain.ValidationError{Message: "product id must be an integer", Fields: []string{"id"}})
		return
	}
	item, err := h.deps.Catalog.Get(id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toProduct(item))
}

func (h *handlers) startSession(c *gin.Context) {
	token, sid, err := h.deps.Sessions.Issue(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{Token: token, SessionID: sid, ExpiresIn: h.deps.Sessions.TTLSeconds()})
}

// endSession revokes the token and drops the session's cart.
func (h *handlers) endSession(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "unauthorized", Message: "missing session token"})
		return
	}
	sid, err := h.deps.Sessions.End(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := h.deps.Carts.Reset(c.Request.Context(), sid); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) getCart(c *gin.Context) {
	state, err := h.deps.Carts.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCart(*state))
}

func (h *handlers) updateCart(c *gin.Context) {
	var in cartsvc.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.logger, &domain.ValidationError{Message: "invalid request body"})
		return
	}
	state, err := h.deps.Carts.Update(c.Request.Context(), sessionID(c), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, toCart(*state))
}

// beginCheckout sends an empty cart back to the catalog.
func (h *handlers) beginCheckout(c *gin.Context) {
	state, err := h.deps.Checkout.Begin(c.Request.Context(), sessionID(c))
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusConflict, errorBody{
			Error: string(domain.KindValidation), Message: verr.Error(), Redirect: catalogPath,
		})
		return
	}
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": toCart(*state)})
}

func (h *handlers) submitCheckout(c *gin.Context) {
	var addr domain.ShippingAddress
	if err := c.ShouldBindJSON(&addr); err != nil {
		writeError(c, h.logger, &domain.ValidationError{Message: "invalid request body"})
		return
	}
	attempt, err := h.deps.Checkout.Submit(c.Request.Context(), sessionID(c), addr)
	var persistence *domain.PersistenceError
	if errors.As(err, &persistence) && attempt != nil && attempt.Confirmation != nil {
		// Paid and already settled without the confirmation step; nothing to resubmit.
		resp := toAttempt(attempt)
		resp.Redirect = confirmationPath
		c.JSON(http.StatusAccepted, resp)
		return
	}
	if err != nil {
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("checkout failed", zap.String("session_id", sessionID(c)), zap.Error(err))
		}
		if attempt != nil {
			body.TransactionHash = attempt.TxHash
		}
		c.AbortWithStatusJSON(status, body)
		return
	}
	resp := toAttempt(attempt)
	resp.Redirect = confirmationPath
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) confirmCheckout(c *gin.Context) {
	conf, err := h.deps.Checkout.Confirm(c.Request.Context(), sessionID(c))
	var persistence *domain.PersistenceError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, toConfirmation(conf))
	case errors.As(err, &persistence) && conf != nil:
		c.JSON(http.StatusAccepted, toConfirmation(conf))
	case domain.KindOf(err) == domain.KindNotFound:
		c.AbortWithStatusJSON(http.StatusNotFound, errorBody{
			Error: string(domain.KindNotFound), Message: err.Error(), Redirect: catalogPath,
		})
	default:
		writeError(c, h.logger, err)
	}
}

func (h *handlers) listOrders(c *gin.Context) {
	orders, err := h.deps.Orders.ListByWallet(c.Request.Context(), c.Query("walletAddress"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *handlers) walletStatus(c *gin.Context) {
	status, err := h.deps.Wallet.Status(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
