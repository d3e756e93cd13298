package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tailorshop/internal/model"
	"tailorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AddSectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AddServiceRequest struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"` // READY_MADE, CUSTOM_TAILORED, BOTH
	Price        decimal.Decimal `json:"price"`
	SectionName  string          `json:"section_name"`
	CostingPrice decimal.Decimal `json:"costing_price"`
	ReorderPoint int             `json:"reorder_point"`
}

type AddCustomerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type AddSalesPersonRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateSalesPersonRequest changes only the fields that are set
type UpdateSalesPersonRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type AddTailorRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CatalogService onboards the sections, services, customers and salespersons orders refer to.
type CatalogService interface {
	AddSection(ctx context.Context, actorID string, req AddSectionRequest) (model.Section, error)
	ListSections(ctx context.Context) ([]model.Section, error)
	AddService(ctx context.Context, actorID string, req AddServiceRequest) (model.Service, error)
	ListServices(ctx context.Context, sectionName string) ([]model.Service, error)
	AddCustomer(ctx context.Context, actorID string, req AddCustomerRequest) (model.Customer, error)
	ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error)
	AddSalesPerson(ctx context.Context, actorID string, req AddSalesPersonRequest) (model.SalesPerson, error)
	ListSalesPersons(ctx context.Context) ([]model.SalesPerson, error)
	UpdateSalesPerson(ctx context.Context, actorID string, id uuid.UUID, req UpdateSalesPersonRequest) (model.SalesPerson, error)
	DeleteSalesPerson(ctx context.Context, actorID string, id uuid.UUID) error
	AddTailor(ctx context.Context, actorID string, req AddTailorRequest) (model.Tailor, error)
	ListTailors(ctx context.Context) ([]model.Tailor, error)
}

type catalogService struct {
	catalogRepo     repository.CatalogRepository
	inventoryRepo   repository.InventoryRepository
	customerRepo    repository.CustomerRepository
	salesPersonRepo repository.SalesPersonRepository
	tailorRepo      repository.TailorRepository
	txManager       repository.TransactionManager
	audit           AuditService
}

func NewCatalogService(
	catalogRepo repository.CatalogRepository,
	inventoryRepo repository.InventoryRepository,
	customerRepo repository.CustomerRepository,
	salesPersonRepo repository.SalesPersonRepository,
	tailorRepo repository.TailorRepository,
	txManager repository.TransactionManager,
	audit AuditService,
) CatalogService {
	return &catalogService{
		catalogRepo:     catalogRepo,
		inventoryRepo:   inventoryRepo,
		customerRepo:    customerRepo,
		salesPersonRepo: salesPersonRepo,
		tailorRepo:      tailorRepo,
		txManager:       txManager,
		audit:           audit,
	}
}

func (s *catalogService) AddSection(ctx context.Context, actorID string, req AddSectionRequest) (model.Section, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr := &ValidationError{}
		verr.add("name", "is required")
		return model.Section{}, verr
	}

	section := model.Section{Name: name, Description: req.Description}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		_, err := s.catalogRepo.FindSectionByName(txCtx, name)
		if err == nil {
			return &ConflictError{Entity: "section", Key: name, Reason: "already exists"}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return s.catalogRepo.CreateSection(txCtx, &section)
	})
	if err != nil {
		return model.Section{}, txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionSectionAdded, section.ID.String(), section.Name, req)
	return section, nil
}

func (s *catalogService) ListSections(ctx context.Context) ([]model.Section, error) {
	return s.catalogRepo.ListSections(ctx)
}

// AddService registers a sellable service. Ready-made services get an empty stock line.
func (s *catalogService) AddService(ctx context.Context, actorID string, req AddServiceRequest) (model.Service, error) {
	verr := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.add("name", "is required")
	}
	switch req.Type {
	case model.ServiceTypeReadyMade, model.ServiceTypeCustomTailored, model.ServiceTypeBoth:
	default:
		verr.add("type", "must be one of READY_MADE, CUSTOM_TAILORED, BOTH")
	}
	if req.Price.IsNegative() {
		verr.add("price", "must not be negative")
	}
	if strings.TrimSpace(req.SectionName) == "" {
		verr.add("section_name", "is required")
	}
	if req.ReorderPoint < 0 {
		verr.add("reorder_point", "must not be negative")
	}
	if err := verr.orNil(); err != nil {
		return model.Service{}, err
	}

	svc := model.Service{
		Name:        name,
		Type:        req.Type,
		Price:       req.Price,
		SectionName: strings.TrimSpace(req.SectionName),
	}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.catalogRepo.FindSectionByName(txCtx, svc.SectionName); err != nil {
			return notFoundOr(err, "section", svc.SectionName)
		}
		_, err := s.catalogRepo.FindServiceByName(txCtx, name)
		if err == nil {
			return &ConflictError{Entity: "service", Key: name, Reason: "already exists"}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.catalogRepo.CreateService(txCtx, &svc); err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}

		if svc.Type == model.ServiceTypeCustomTailored {
			return nil
		}
		if _, err := s.inventoryRepo.GetStock(txCtx, model.ProductSKU(name)); err == nil {
			return nil
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		inv := model.ProductInventory{
			ProductName:  name,
			ReorderPoint: req.ReorderPoint,
			CostingPrice: req.CostingPrice,
			SellingPrice: req.Price,
		}
		if err := s.inventoryRepo.CreateProduct(txCtx, &inv); err != nil {
			return fmt.Errorf("failed to create stock line: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Service{}, txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionServiceAdded, svc.ID.String(), svc.Name, req)
	return svc, nil
}

func (s *catalogService) ListServices(ctx context.Context, sectionName string) ([]model.Service, error) {
	return s.catalogRepo.ListServices(ctx, sectionName)
}

func (s *catalogService) AddCustomer(ctx context.Context, actorID string, req AddCustomerRequest) (model.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr := &ValidationError{}
		verr.add("name", "is required")
		return model.Customer{}, verr
	}

	customer := model.Customer{Name: name, Phone: strings.TrimSpace(req.Phone), Location: req.Location}
	if err := s.customerRepo.Create(ctx, &customer); err != nil {
		return model.Customer{}, fmt.Errorf("failed to create customer: %w", err)
	}

	s.audit.Record(ctx, actorID, model.ActionCustomerAdded, customer.ID.String(), customer.Name, req)
	return customer, nil
}

func (s *catalogService) ListCustomers(ctx context.Context, page, limit int, search string) ([]model.Customer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.customerRepo.List(ctx, page, limit, strings.TrimSpace(search))
}

func (s *catalogService) AddSalesPerson(ctx context.Context, actorID string, req AddSalesPersonRequest) (model.SalesPerson, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr := &ValidationError{}
		verr.add("name", "is required")
		return model.SalesPerson{}, verr
	}

	sp := model.SalesPerson{Name: name, Phone: strings.TrimSpace(req.Phone)}
	if err := s.salesPersonRepo.Create(ctx, &sp); err != nil {
		return model.SalesPerson{}, fmt.Errorf("failed to create salesperson: %w", err)
	}

	s.audit.Record(ctx, actorID, model.ActionSalesPersonAdded, sp.ID.String(), sp.Name, req)
	return sp, nil
}

func (s *catalogService) ListSalesPersons(ctx context.Context) ([]model.SalesPerson, error) {
	return s.salesPersonRepo.List(ctx)
}

// UpdateSalesPerson renames or re-numbers a salesperson. Orders keep the name they were placed under.
func (s *catalogService) UpdateSalesPerson(ctx context.Context, actorID string, id uuid.UUID, req UpdateSalesPersonRequest) (model.SalesPerson, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			verr := &ValidationError{}
			verr.add("name", "must not be empty")
			return model.SalesPerson{}, verr
		}
		updates["name"] = name
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}

	var sp *model.SalesPerson
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if _, err = s.salesPersonRepo.FindByID(txCtx, id); err != nil {
			return notFoundOr(err, "salesperson", id.String())
		}
		if name, ok := updates["name"].(string); ok {
			other, err := s.salesPersonRepo.FindByName(txCtx, name)
			if err == nil && other.ID != id {
				return &ConflictError{Entity: "salesperson", Key: name, Reason: "already exists"}
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if len(updates) > 0 {
			if err := s.salesPersonRepo.Update(txCtx, id, updates); err != nil {
				return notFoundOr(err, "salesperson", id.String())
			}
		}
		sp, err = s.salesPersonRepo.FindByID(txCtx, id)
		return err
	})
	if err != nil {
		return model.SalesPerson{}, txErr(err)
	}

	if len(updates) > 0 {
		s.audit.Record(ctx, actorID, model.ActionSalesPersonUpdated, id.String(), sp.Name, updates)
	}
	return *sp, nil
}

// DeleteSalesPerson removes a salesperson no order refers to
func (s *catalogService) DeleteSalesPerson(ctx context.Context, actorID string, id uuid.UUID) error {
	var sp *model.SalesPerson
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		if sp, err = s.salesPersonRepo.FindByID(txCtx, id); err != nil {
			return notFoundOr(err, "salesperson", id.String())
		}
		hasOrders, err := s.salesPersonRepo.HasOrders(txCtx, id)
		if err != nil {
			return err
		}
		if hasOrders {
			return &ConflictError{Entity: "salesperson", Key: sp.Name, Reason: "has orders"}
		}
		return notFoundOr(s.salesPersonRepo.Delete(txCtx, id), "salesperson", id.String())
	})
	if err != nil {
		return txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionSalesPersonDeleted, id.String(), sp.Name, nil)
	return nil
}

func (s *catalogService) AddTailor(ctx context.Context, actorID string, req AddTailorRequest) (model.Tailor, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr := &ValidationError{}
		verr.add("name", "is required")
		return model.Tailor{}, verr
	}

	tailor := model.Tailor{Name: name, Phone: strings.TrimSpace(req.Phone)}
	if err := s.tailorRepo.Create(ctx, &tailor); err != nil {
		return model.Tailor{}, fmt.Errorf("failed to create tailor: %w", err)
	}

	s.audit.Record(ctx, actorID, model.ActionTailorAdded, tailor.ID.String(), tailor.Name, req)
	return tailor, nil
}

func (s *catalogService) ListTailors(ctx context.Context) ([]model.Tailor, error) {
	return s.tailorRepo.List(ctx)
}
