package handler

import (
	"net/http"

	"tailorshop/internal/middleware"
	"tailorshop/internal/service"
	"tailorshop/pkg/pagination"
	"tailorshop/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	secret         []byte
}

func NewCatalogHandler(catalogService service.CatalogService, secret []byte) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, secret: secret}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	api.Use(middleware.RequireRole(h.secret, anyRole...))
	{
		api.GET("/sections", h.ListSections)
		api.POST("/sections", middleware.RequireRole(h.secret, managerRole...), h.AddSection)
		api.GET("/services", h.ListServices)
		api.POST("/services", middleware.RequireRole(h.secret, managerRole...), h.AddService)
		api.GET("/customers", h.ListCustomers)
		api.POST("/customers", h.AddCustomer)
		api.GET("/sales-persons", h.ListSalesPersons)
		api.POST("/sales-persons", middleware.RequireRole(h.secret, managerRole...), h.AddSalesPerson)
		api.PUT("/sales-persons/:id", middleware.RequireRole(h.secret, managerRole...), h.UpdateSalesPerson)
		api.DELETE("/sales-persons/:id", middleware.RequireRole(h.secret, managerRole...), h.DeleteSalesPerson)
		api.GET("/tailors", h.ListTailors)
		api.POST("/tailors", middleware.RequireRole(h.secret, managerRole...), h.AddTailor)
	}
}

// @Summary      List sections
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Section}
// @Router       /api/sections [get]
func (h *CatalogHandler) ListSections(c *gin.Context) {
	rows, err := h.catalogService.ListSections(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Add section
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddSectionRequest  true  "Section Payload"
// @Success      201      {object}  response.Response{data=model.Section}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sections [post]
func (h *CatalogHandler) AddSection(c *gin.Context) {
	var req service.AddSectionRequest
	if !bindJSON(c, &req) {
		return
	}

	section, err := h.catalogService.AddSection(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, section))
}

// @Summary      List services
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        section  query     string  false  "Section name"
// @Success      200      {object}  response.Response{data=[]model.Service}
// @Router       /api/services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	rows, err := h.catalogService.ListServices(c.Request.Context(), c.Query("section"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// AddService adds a catalogue entry; ready-made services get a stock line
// @Summary      Add service
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddServiceRequest  true  "Service Payload"
// @Success      201      {object}  response.Response{data=model.Service}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/services [post]
func (h *CatalogHandler) AddService(c *gin.Context) {
	var req service.AddServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	svc, err := h.catalogService.AddService(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, svc))
}

// @Summary      List customers
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        search  query     string  false  "Search by name or phone"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=[]model.Customer,meta=pagination.Meta}
// @Router       /api/customers [get]
func (h *CatalogHandler) ListCustomers(c *gin.Context) {
	p := pagination.Parse(c)

	rows, total, err := h.catalogService.ListCustomers(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Page(http.StatusOK, rows, p.Meta(total)))
}

// @Summary      Add customer
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddCustomerRequest  true  "Customer Payload"
// @Success      201      {object}  response.Response{data=model.Customer}
// @Failure      400      {object}  response.Response
// @Router       /api/customers [post]
func (h *CatalogHandler) AddCustomer(c *gin.Context) {
	var req service.AddCustomerRequest
	if !bindJSON(c, &req) {
		return
	}

	customer, err := h.catalogService.AddCustomer(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, customer))
}

// @Summary      List salespersons
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.SalesPerson}
// @Router       /api/sales-persons [get]
func (h *CatalogHandler) ListSalesPersons(c *gin.Context) {
	rows, err := h.catalogService.ListSalesPersons(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Add salesperson
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddSalesPersonRequest  true  "Salesperson Payload"
// @Success      201      {object}  response.Response{data=model.SalesPerson}
// @Failure      400      {object}  response.Response
// @Router       /api/sales-persons [post]
func (h *CatalogHandler) AddSalesPerson(c *gin.Context) {
	var req service.AddSalesPersonRequest
	if !bindJSON(c, &req) {
		return
	}

	person, err := h.catalogService.AddSalesPerson(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, person))
}

// @Summary      Update salesperson
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Salesperson ID"
// @Param        payload  body      service.UpdateSalesPersonRequest  true  "Salesperson Payload"
// @Success      200      {object}  response.Response{data=model.SalesPerson}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/sales-persons/{id} [put]
func (h *CatalogHandler) UpdateSalesPerson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid salesperson ID"))
		return
	}
	var req service.UpdateSalesPersonRequest
	if !bindJSON(c, &req) {
		return
	}

	person, err := h.catalogService.UpdateSalesPerson(c.Request.Context(), actorID(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, person))
}

// DeleteSalesPerson refuses while any order still names the salesperson
// @Summary      Delete salesperson
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Salesperson ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/sales-persons/{id} [delete]
func (h *CatalogHandler) DeleteSalesPerson(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid salesperson ID"))
		return
	}

	if err := h.catalogService.DeleteSalesPerson(c.Request.Context(), actorID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Salesperson deleted"}))
}

// @Summary      List tailors
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Tailor}
// @Router       /api/tailors [get]
func (h *CatalogHandler) ListTailors(c *gin.Context) {
	rows, err := h.catalogService.ListTailors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}

// @Summary      Add tailor
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddTailorRequest  true  "Tailor Payload"
// @Success      201      {object}  response.Response{data=model.Tailor}
// @Failure      400      {object}  response.Response
// @Router       /api/tailors [post]
func (h *CatalogHandler) AddTailor(c *gin.Context) {
	var req service.AddTailorRequest
	if !bindJSON(c, &req) {
		return
	}

	tailor, err := h.catalogService.AddTailor(c.Request.Context(), actorID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tailor))
}
