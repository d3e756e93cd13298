package handler

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/service"
	"tailorshop/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
	secret         []byte
}

func NewPaymentHandler(paymentService service.PaymentService, secret []byte) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, secret: secret}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/orders/:id/transactions")
	payments.Use(middleware.RequireRole(h.secret, anyRole...))
	{
		payments.POST("", h.PostTransaction)
		payments.GET("", h.ListTransactions)
	}
}

// PostTransaction records a payment against an order's pending balance
// @Summary      Post payment
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Invoice ID"
// @Param        payload  body      service.PostPaymentRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResult}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/transactions [post]
func (h *PaymentHandler) PostTransaction(c *gin.Context) {
	var req service.PostPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.paymentService.PostTransaction(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// @Summary      List payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]model.Transaction}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/transactions [get]
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	txs, err := h.paymentService.ListTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, txs))
}
