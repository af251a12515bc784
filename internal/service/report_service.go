package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WarehouseValuation aggregates one warehouse's stock into totals.
type WarehouseValuation struct {
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	WarehouseName string          `json:"warehouse_name"`
	ProductCount  int64           `json:"product_count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

// MovementActivity summarizes ledger throughput over a period.
type MovementActivity struct {
	MovementCount int64           `json:"movement_count"`
	EntryValue    decimal.Decimal `json:"entry_value"`
	ExitValue     decimal.Decimal `json:"exit_value"`
}

type StockSummaryResponse struct {
	Warehouses []WarehouseValuation `json:"warehouses"`
	Activity   MovementActivity     `json:"activity"`
	StartDate  time.Time            `json:"start_date"`
	EndDate    time.Time            `json:"end_date"`
}

type ReportService interface {
	StockSummary(ctx context.Context, tenantID uuid.UUID, startDate, endDate time.Time) (StockSummaryResponse, error)
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

// StockSummary values every warehouse at quantity x moving average cost and
// totals ledger activity inside the time bracket.
func (s *reportService) StockSummary(ctx context.Context, tenantID uuid.UUID, startDate, endDate time.Time) (StockSummaryResponse, error) {
	response := StockSummaryResponse{
		StartDate: startDate,
		EndDate:   endDate,
	}

	var valuations []WarehouseValuation
	err := s.db.WithContext(ctx).Table("stock_levels").
		Select("stock_levels.warehouse_id as warehouse_id, warehouses.name as warehouse_name, COUNT(stock_levels.product_id) as product_count, COALESCE(SUM(stock_levels.quantity), 0) as total_quantity, COALESCE(SUM(stock_levels.quantity * stock_levels.average_cost), 0) as total_value").
		Joins("JOIN warehouses ON warehouses.id = stock_levels.warehouse_id").
		Where("stock_levels.tenant_id = ?", tenantID).
		Group("stock_levels.warehouse_id, warehouses.name").
		Order("total_value DESC").
		Scan(&valuations).Error
	if err != nil {
		return response, err
	}
	response.Warehouses = valuations

	var activity struct {
		MovementCount int64
		EntryValue    decimal.Decimal
		ExitValue     decimal.Decimal
	}
	err = s.db.WithContext(ctx).Table("stock_movements").
		Select(`COUNT(id) as movement_count,
			COALESCE(SUM(CASE WHEN type IN ('purchase_entry','transfer_in','adjustment_in','return_in','production') THEN total_cost ELSE 0 END), 0) as entry_value,
			COALESCE(SUM(CASE WHEN type NOT IN ('purchase_entry','transfer_in','adjustment_in','return_in','production') THEN total_cost ELSE 0 END), 0) as exit_value`).
		Where("tenant_id = ? AND created_at >= ? AND created_at <= ?", tenantID, startDate, endDate).
		Scan(&activity).Error
	if err != nil {
		return response, err
	}
	response.Activity = MovementActivity{
		MovementCount: activity.MovementCount,
		EntryValue:    activity.EntryValue,
		ExitValue:     activity.ExitValue,
	}

	return response, nil
}
