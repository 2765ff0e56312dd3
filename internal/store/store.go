package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"giribazar/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("already exists")
	// ErrBusy signals lock contention on a ledger row; callers may retry.
	ErrBusy = errors.New("ledger row busy")
)

type Repository interface {
	// Catalog
	ListCategories(ctx context.Context) ([]string, error)
	CreateCategory(ctx context.Context, name string) error
	CreateProduct(ctx context.Context, category string, product string) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SetProductPrice(ctx context.Context, category string, product string, price decimal.Decimal) error

	// Stock ledger. RecordIntake upserts the (category, product, day) balance
	// and appends the history row in one atomic step.
	RecordIntake(ctx context.Context, rec domain.IntakeRecord, day string) (*domain.StockEntry, error)
	GetStockEntry(ctx context.Context, category string, product string, day string) (*domain.StockEntry, error)
	ListStockEntries(ctx context.Context, day string) ([]domain.StockEntry, error)
	ListIntakeHistory(ctx context.Context) ([]domain.IntakeRecord, error)

	// Sale settlement. The lookup deliberately ignores the purchase day
	// (newest entry wins) and the debit plus sale insert are atomic with
	// respect to concurrent settlements and intakes on the same pair.
	SettleSale(ctx context.Context, sale domain.SaleRecord) (*domain.Settlement, error)
	ListSales(ctx context.Context) ([]domain.SaleRecord, error)

	// Reporting
	SalesReport(ctx context.Context, from time.Time, to time.Time) ([]domain.SalesReportRow, error)
	ProfitLossForDay(ctx context.Context, day string) (*domain.ProfitLossSnapshot, error)
	SaveProfitLoss(ctx context.Context, entry domain.ProfitLossEntry) error

	// Roster
	CreateSellerAccount(ctx context.Context, account domain.SellerAccount) (*domain.SellerAccount, error)
	ListSellerAccounts(ctx context.Context) ([]domain.SellerAccount, error)
	CreateFleetEntry(ctx context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error)
	ListFleetEntries(ctx context.Context) ([]domain.FleetEntry, error)
	UpdateFleetEntry(ctx context.Context, entry domain.FleetEntry) (*domain.FleetEntry, error)
	DeleteFleetEntry(ctx context.Context, id string) error

	// Users
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
}
