package handler

import (
	"errors"
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/repository"
	"tailorshop/internal/service"
	"tailorshop/pkg/pagination"
	"tailorshop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
	secret       []byte
}

func NewOrderHandler(orderService service.OrderService, secret []byte) *OrderHandler {
	return &OrderHandler{orderService: orderService, secret: secret}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole(h.secret, anyRole...), h.CreateOrder)
		orders.GET("", middleware.RequireRole(h.secret, anyRole...), h.ListOrders)
		orders.GET("/options", middleware.RequireRole(h.secret, anyRole...), h.GetOptions)
		orders.GET("/:id", middleware.RequireRole(h.secret, anyRole...), h.GetOrder)
		orders.PATCH("/:id", middleware.RequireRole(h.secret, anyRole...), h.UpdateOrder)
		orders.POST("/:id/cancel", middleware.RequireRole(h.secret, managerRole...), h.CancelOrder)
		orders.DELETE("/:id", middleware.RequireRole(h.secret, managerRole...), h.DeleteOrder)
	}

	router.GET("/api/tailors/:id/orders", middleware.RequireRole(h.secret, anyRole...), h.ListTailorOrders)

	// Customers follow their order with the tracking token; no login
	router.GET("/api/track/:token", h.TrackOrder)
}

// CreateOrder places an order, reserving ready-made stock and recording fabrics, measurements and payments
// @Summary      Create order
// @Description  Commits the order, items and stock reservations atomically, then records fabrics, measurements, payments and statistics. A 207 means the order exists but its relations could not be completed.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=model.Order}
// @Success      207      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actorID(c), req)
	if err != nil {
		var secondary *service.SecondaryPhaseError
		if errors.As(err, &secondary) && order != nil {
			c.JSON(http.StatusMultiStatus, response.Partial(http.StatusMultiStatus, order, err.Error()))
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns a page of orders, newest first
// @Summary      List orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        customer_id      query     string  false  "Customer ID"
// @Param        sales_person_id  query     string  false  "Salesperson ID"
// @Param        status           query     string  false  "Order status"
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Number of items per page (default 20)"
// @Success      200              {object}  response.Response{data=[]model.Order,meta=pagination.Meta}
// @Failure      400              {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	filter := repository.OrderFilter{Status: c.Query("status")}
	for param, dst := range map[string]**uuid.UUID{
		"customer_id":     &filter.CustomerID,
		"sales_person_id": &filter.SalesPersonID,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+param))
			return
		}
		*dst = &id
	}

	p := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Page(http.StatusOK, orders, p.Meta(total)))
}

// ListTailorOrders is the work queue of one tailor
// @Summary      List a tailor's orders
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id     path      string  true   "Tailor ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=[]model.Order,meta=pagination.Meta}
// @Failure      400    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/tailors/{id}/orders [get]
func (h *OrderHandler) ListTailorOrders(c *gin.Context) {
	tailorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid tailor ID"))
		return
	}

	p := pagination.Parse(c)
	orders, total, err := h.orderService.ListOrdersByTailor(c.Request.Context(), tailorID, p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Page(http.StatusOK, orders, p.Meta(total)))
}

// GetOptions returns the products, customers and salespersons an order form chooses from
// @Summary      Order form options
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DistinctValues}
// @Router       /api/orders/options [get]
func (h *OrderHandler) GetOptions(c *gin.Context) {
	values, err := h.orderService.GetAllDistinctValues(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, values))
}

// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder edits branch, notes, delivery date or the assigned tailor, or moves the status forward
// @Summary      Update order
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Invoice ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id} [patch]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// CancelOrder cancels an order and returns its stock
// @Summary      Cancel order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	order, err := h.orderService.CancelOrder(c.Request.Context(), actorID(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// DeleteOrder removes a cancelled order and everything recorded against it
// @Summary      Delete order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Order deleted"}))
}

// @Summary      Track order
// @Description  Looks an order up by the tracking token printed on the receipt
// @Tags         orders
// @Produce      json
// @Param        token  path      string  true  "Tracking token"
// @Success      200    {object}  response.Response{data=model.Order}
// @Failure      404    {object}  response.Response
// @Router       /api/track/{token} [get]
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	order, err := h.orderService.TrackOrder(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
