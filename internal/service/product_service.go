package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
}

type UpdateProductRequest struct {
	SKU       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	Active    *bool           `json:"active"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SalePrice decimal.Decimal `json:"sale_price"`
}

type CreateWarehouseRequest struct {
	Name string `json:"name" binding:"required"`
	Code string `json:"code"`
}

// --- Interface ---

// ProductService is the supporting catalog CRUD: products feed count seeding
// and kit definitions, warehouses anchor every stock key.
type ProductService interface {
	CreateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID, req UpdateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) error
	GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error)
	CreateWarehouse(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateWarehouseRequest) (*model.Warehouse, error)
	ListWarehouses(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.Warehouse, int64, error)
}

type productService struct {
	productRepo   repository.ProductRepository
	warehouseRepo repository.WarehouseRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo:   productRepo,
		warehouseRepo: warehouseRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

// --- Implementation ---

func (s *productService) CreateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateProductRequest) (*model.Product, error) {
	product := &model.Product{
		TenantID:  tenantID,
		SKU:       req.SKU,
		Name:      req.Name,
		Active:    true,
		CostPrice: req.CostPrice,
		SalePrice: req.SalePrice,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID, req UpdateProductRequest) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.CostPrice = req.CostPrice
	product.SalePrice = req.SalePrice
	if req.Active != nil {
		product.Active = *req.Active
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product", ErrNotFound)
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, tenantID, id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.Name,
			Details:    `{"deleted": true}`,
		}
		return s.auditRepo.Log(txCtx, audit)
	})
}

func (s *productService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product", ErrNotFound)
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, tenantID uuid.UUID, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.productRepo.List(ctx, tenantID, page, limit, search)
}

func (s *productService) CreateWarehouse(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, req CreateWarehouseRequest) (*model.Warehouse, error) {
	warehouse := &model.Warehouse{
		TenantID: tenantID,
		Name:     req.Name,
		Code:     req.Code,
		Active:   true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.warehouseRepo.Create(txCtx, warehouse); err != nil {
			return fmt.Errorf("failed to create warehouse: %w", err)
		}

		details, _ := json.Marshal(req)
		audit := &model.AuditLog{
			TenantID:   tenantID,
			UserID:     userID,
			Action:     model.ActionCreateWarehouse,
			EntityID:   warehouse.ID.String(),
			EntityName: warehouse.Name,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return nil, err
	}

	return warehouse, nil
}

func (s *productService) ListWarehouses(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.Warehouse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.warehouseRepo.List(ctx, tenantID, page, limit)
}
