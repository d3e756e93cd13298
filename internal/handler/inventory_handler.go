package handler

import (
	"net/http"
	"strconv"

	"tailorshop/internal/middleware"
	"tailorshop/internal/model"
	"tailorshop/internal/service"
	"tailorshop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
	secret           []byte
}

func NewInventoryHandler(inventoryService service.InventoryService, secret []byte) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, secret: secret}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	inventory := router.Group("/api/inventory")
	inventory.Use(middleware.RequireRole(h.secret, anyRole...))
	{
		inventory.GET("/products", h.ListProducts)
		inventory.GET("/fabrics", h.ListFabrics)
		inventory.GET("/fabrics/reserved", h.ListReservedFabrics)
		inventory.GET("/low-stock", h.ListLowStock)
		inventory.GET("/availability", h.CheckAvailability)
		inventory.GET("/:id/movements", h.ListMovements)
		inventory.POST("/fabrics", middleware.RequireRole(h.secret, managerRole...), h.AddFabric)
		inventory.POST("/restock", middleware.RequireRole(h.secret, managerRole...), h.Restock)
	}

	suppliers := router.Group("/api/suppliers")
	suppliers.Use(middleware.RequireRole(h.secret, anyRole...))
	{
		suppliers.GET("", h.ListSuppliers)
		suppliers.POST("", middleware.RequireRole(h.secret, managerRole...), h.AddSupplier)
	}
}

// @Summary      List product stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ProductInventory}
// @Router       /api/inventory/products [get]
func (h *InventoryHandler) ListProducts(c *gin.Context) {
	rows, err := h.inventoryService.ListProductInventory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      List fabric stock
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.FabricInventory}
// @Router       /api/inventory/fabrics [get]
func (h *InventoryHandler) ListFabrics(c *gin.Context) {
	rows, err := h.inventoryService.ListFabricInventory(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// ListReservedFabrics returns fabrics held by confirmed or processing orders
// @Summary      List reserved fabrics
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Fabric}
// @Router       /api/inventory/fabrics/reserved [get]
func (h *InventoryHandler) ListReservedFabrics(c *gin.Context) {
	rows, err := h.inventoryService.ListReservedFabrics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      List low stock
// @Description  Products and fabrics at or below their reorder point
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.StockLevel}
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	rows, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// CheckAvailability reports whether quantity units of a SKU can be reserved right now
// @Summary      Check availability
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        kind      query     string  true   "PRODUCT or FABRIC"
// @Param        name      query     string  true   "Product or fabric name"
// @Param        type      query     string  false  "Fabric type"
// @Param        color     query     string  false  "Fabric color"
// @Param        quantity  query     int     true   "Requested quantity"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Failure      404       {object}  response.Response
// @Router       /api/inventory/availability [get]
func (h *InventoryHandler) CheckAvailability(c *gin.Context) {
	quantity, err := strconv.Atoi(c.Query("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid quantity"))
		return
	}

	var sku model.SKU
	switch c.Query("kind") {
	case model.SKUKindProduct:
		sku = model.ProductSKU(c.Query("name"))
	case model.SKUKindFabric:
		sku = model.FabricSKU(c.Query("name"), c.Query("type"), c.Query("color"))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "kind must be PRODUCT or FABRIC"))
		return
	}

	ok, err := h.inventoryService.CheckAvailability(c.Request.Context(), sku, quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"sku": sku, "quantity": quantity, "available": ok}))
}

// @Summary      List movements
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Inventory row ID"
// @Success      200  {object}  response.Response{data=[]model.InventoryMovement}
// @Failure      400  {object}  response.Response
// @Router       /api/inventory/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid inventory ID"))
		return
	}

	rows, err := h.inventoryService.ListMovements(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Add fabric
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddFabricRequest  true  "Fabric Payload"
// @Success      201      {object}  response.Response{data=model.FabricInventory}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/inventory/fabrics [post]
func (h *InventoryHandler) AddFabric(c *gin.Context) {
	var req service.AddFabricRequest
	if !bindJSON(c, &req) {
		return
	}

	fabric, err := h.inventoryService.AddFabric(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, fabric))
}

// Restock adds supplier stock to a product or fabric line
// @Summary      Restock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RestockRequest  true  "Restock Payload"
// @Success      201      {object}  response.Response{data=model.InventoryMovement}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/inventory/restock [post]
func (h *InventoryHandler) Restock(c *gin.Context) {
	var req service.RestockRequest
	if !bindJSON(c, &req) {
		return
	}

	movement, err := h.inventoryService.Restock(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, movement))
}

// @Summary      List suppliers
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Supplier}
// @Router       /api/suppliers [get]
func (h *InventoryHandler) ListSuppliers(c *gin.Context) {
	rows, err := h.inventoryService.ListSuppliers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Add supplier
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddSupplierRequest  true  "Supplier Payload"
// @Success      201      {object}  response.Response{data=model.Supplier}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/suppliers [post]
func (h *InventoryHandler) AddSupplier(c *gin.Context) {
	var req service.AddSupplierRequest
	if !bindJSON(c, &req) {
		return
	}

	supplier, err := h.inventoryService.AddSupplier(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, supplier))
}
